package middleware

import (
	"net"
	"net/http"

	"orgconsole/internal/platform/audit"
)

// clientAddr strips the port from the peer address.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientInfo tags the request context with the caller's address and user
// agent so audit entries recorded downstream can attribute the change.
func ClientInfo(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithRequest(r.Context(), audit.Request{
			IPAddress: clientAddr(r),
			UserAgent: r.UserAgent(),
		})
		next(w, r.WithContext(ctx))
	}
}
