package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"orgconsole/internal/platform/config"
	"orgconsole/internal/platform/database"
	"orgconsole/internal/platform/identity"
	"orgconsole/internal/platform/models"
	"orgconsole/internal/platform/repositories"
)

const testConfig = `
logging:
  level: error
seed:
  plans:
    - id: plan_team
      name: Team
      max_users: 2
      currency: USD
`

func newGlobals(t *testing.T) (*Globals, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))

	out := &bytes.Buffer{}
	return &Globals{
		Config:   path,
		Database: "file:" + filepath.Join(dir, "orgctl.db"),
		Actor:    "usr_operator",
		Out:      out,
	}, out
}

// prepare seeds the database and stores one tenant and one principal.
func prepare(t *testing.T, g *Globals) (orgID, email string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, (&SeedCmd{}).Run(ctx, g))

	db, err := database.Open(config.DatabaseConfig{URL: g.Database, MaxConnections: 1})
	require.NoError(t, err)
	defer db.Close()

	plan := "plan_team"
	org := &models.Organization{ID: "org_acme", Name: "Acme", RegistrationNumber: "R1", TaxNumber: "T1", SubscriptionPlanID: &plan}
	require.NoError(t, repositories.NewStore(db).InsertOrganization(ctx, org))

	_, err = identity.NewLocal(db, identity.WithCost(bcrypt.MinCost)).CreatePrincipal(ctx, "sam@example.com", "correct-horse")
	require.NoError(t, err)
	return org.ID, "sam@example.com"
}

func TestMembershipCommands(t *testing.T) {
	ctx := context.Background()
	g, out := newGlobals(t)
	orgID, email := prepare(t, g)

	out.Reset()
	require.NoError(t, (&AddMemberCmd{Org: orgID, Email: email, Role: "Admin"}).Run(ctx, g))
	var m models.Membership
	require.NoError(t, json.Unmarshal(out.Bytes(), &m))
	require.Equal(t, models.RoleAdmin, m.RoleName)

	// Adding twice hits the duplicate guard.
	require.Error(t, (&AddMemberCmd{Org: orgID, Email: email, Role: "Member"}).Run(ctx, g))

	require.NoError(t, (&BlockMemberCmd{Membership: m.ID}).Run(ctx, g))
	require.NoError(t, (&BlockOrgCmd{Org: orgID}).Run(ctx, g))

	out.Reset()
	require.NoError(t, (&AccessCmd{Email: email}).Run(ctx, g))
	var state struct {
		Tenants []struct {
			MembershipBlocked bool `json:"membership_blocked"`
			Blocked           bool `json:"blocked"`
		} `json:"tenants"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &state))
	require.Len(t, state.Tenants, 1)
	require.True(t, state.Tenants[0].MembershipBlocked)
	require.True(t, state.Tenants[0].Blocked)

	out.Reset()
	require.NoError(t, (&OrgsCmd{}).Run(ctx, g))
	require.Contains(t, out.String(), "Acme")
	require.Contains(t, out.String(), "Team")

	out.Reset()
	require.NoError(t, (&RemoveMemberCmd{Membership: m.ID}).Run(ctx, g))
	require.Contains(t, out.String(), m.ID)
}

func TestDefaultOrganizationCannotBeBlocked(t *testing.T) {
	g, _ := newGlobals(t)
	prepare(t, g)

	require.Error(t, (&BlockOrgCmd{Org: database.DefaultOrganizationID}).Run(context.Background(), g))
}

func TestReconcileCommand(t *testing.T) {
	g, out := newGlobals(t)
	prepare(t, g)

	out.Reset()
	require.NoError(t, (&ReconcileCmd{}).Run(context.Background(), g))
	require.Contains(t, out.String(), "dangling_profiles")
}
