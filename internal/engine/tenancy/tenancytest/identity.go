package tenancytest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

type account struct {
	principal models.Principal
	secret    string
}

// Identity implements tenancy.IdentityProvider in memory with plain-text secrets.
type Identity struct {
	mu sync.Mutex
	recorder

	accounts  map[string]*account // principal id -> account
	signedOut map[string]int
	nextID    int
}

var _ tenancy.IdentityProvider = (*Identity)(nil)

func NewIdentity() *Identity {
	return &Identity{
		recorder:  recorder{failures: map[string]error{}},
		accounts:  map[string]*account{},
		signedOut: map[string]int{},
	}
}

// FailOn makes every later call to method return err. A nil err clears it.
func (i *Identity) FailOn(method string, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err == nil {
		delete(i.failures, method)
		return
	}
	i.failures[method] = err
}

func (i *Identity) Calls() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.calls...)
}

// Register adds an account directly and returns its id.
func (i *Identity) Register(email, secret string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.register(email, secret)
}

func (i *Identity) register(email, secret string) string {
	i.nextID++
	id := fmt.Sprintf("usr_%d", i.nextID)
	i.accounts[id] = &account{
		principal: models.Principal{ID: id, Email: strings.ToLower(email)},
		secret:    secret,
	}
	return id
}

// Exists reports whether the principal is still registered.
func (i *Identity) Exists(principalID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.accounts[principalID]
	return ok
}

// Count returns the number of registered principals.
func (i *Identity) Count() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.accounts)
}

func (i *Identity) SignOuts(principalID string) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.signedOut[principalID]
}

func (i *Identity) byEmail(email string) *account {
	email = strings.ToLower(email)
	for _, a := range i.accounts {
		if a.principal.Email == email {
			return a
		}
	}
	return nil
}

func (i *Identity) CreatePrincipal(ctx context.Context, email, secret string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.enter("CreatePrincipal"); err != nil {
		return "", err
	}
	if i.byEmail(email) != nil {
		return "", tenancy.ErrAlreadyRegistered
	}
	return i.register(email, secret), nil
}

func (i *Identity) Authenticate(ctx context.Context, email, secret string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.enter("Authenticate"); err != nil {
		return "", err
	}
	a := i.byEmail(email)
	if a == nil || a.secret != secret {
		return "", tenancy.ErrInvalidCredentials
	}
	return a.principal.ID, nil
}

func (i *Identity) DeletePrincipal(ctx context.Context, principalID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.enter("DeletePrincipal"); err != nil {
		return err
	}
	if _, ok := i.accounts[principalID]; !ok {
		return tenancy.ErrPrincipalNotFound
	}
	delete(i.accounts, principalID)
	return nil
}

func (i *Identity) GetPrincipal(ctx context.Context, principalID string) (*models.Principal, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.enter("GetPrincipal"); err != nil {
		return nil, err
	}
	a, ok := i.accounts[principalID]
	if !ok {
		return nil, tenancy.ErrPrincipalNotFound
	}
	p := a.principal
	return &p, nil
}

func (i *Identity) LookupByEmail(ctx context.Context, email string) (*models.Principal, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.enter("LookupByEmail"); err != nil {
		return nil, err
	}
	a := i.byEmail(email)
	if a == nil {
		return nil, tenancy.ErrPrincipalNotFound
	}
	p := a.principal
	return &p, nil
}

func (i *Identity) ListPrincipals(ctx context.Context) ([]*models.Principal, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.enter("ListPrincipals"); err != nil {
		return nil, err
	}
	out := make([]*models.Principal, 0, len(i.accounts))
	for _, a := range i.accounts {
		p := a.principal
		out = append(out, &p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Email < out[b].Email })
	return out, nil
}

func (i *Identity) SignOut(ctx context.Context, principalID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.enter("SignOut"); err != nil {
		return err
	}
	i.signedOut[principalID]++
	return nil
}
