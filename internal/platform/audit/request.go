package audit

import (
	"context"

	"orgconsole/internal/pkg/parser"
)

// Request describes the client behind an audited mutation.
type Request struct {
	IPAddress string
	UserAgent string
}

type requestKey struct{}

// WithRequest attaches the calling client to ctx. Entries recorded under ctx
// carry its address, user agent and parsed platform.
func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFrom returns the client attached by WithRequest.
func RequestFrom(ctx context.Context) (Request, bool) {
	r, ok := ctx.Value(requestKey{}).(Request)
	return r, ok
}

func (r Request) client() parser.Client {
	return parser.ParseUserAgent(r.UserAgent)
}
