package tenancytest

import (
	"context"
	"sync"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/audit"
)

// Auditor keeps recorded entries in memory.
type Auditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

var _ tenancy.Auditor = (*Auditor)(nil)

func (a *Auditor) Record(ctx context.Context, e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

// Actions returns the recorded actions in order.
func (a *Auditor) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

func (a *Auditor) Entries() []audit.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]audit.Entry(nil), a.entries...)
}
