package tenancy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"orgconsole/internal/platform/audit"
)

type recorder struct{ actions []string }

func (r *recorder) Record(_ context.Context, e audit.Entry) { r.actions = append(r.actions, e.Action) }

func TestMultiAuditor(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := MultiAuditor{a, NopAuditor{}, b}

	m.Record(context.Background(), audit.Entry{Action: audit.ActionMemberAdded})

	require.Equal(t, []string{audit.ActionMemberAdded}, a.actions)
	require.Equal(t, []string{audit.ActionMemberAdded}, b.actions)
}
