package tenancy

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the stores, the identity provider and the engine.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateMembership = errors.New("membership already exists")
	ErrTenantAlreadyExists = errors.New("an organization with this registration number or tax number already exists")
	ErrSeatLimitExceeded   = errors.New("organization seat limit reached")
	ErrRoleNotAssignable   = errors.New("role cannot be assigned through this flow")
	ErrProtectedMembership = errors.New("super-admin memberships cannot be blocked or removed")
	ErrDefaultTenant       = errors.New("operation not allowed on the default organization")
	ErrNotMember           = errors.New("principal is not a member of the organization")

	ErrPrincipalNotFound    = errors.New("principal not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrRoleNotFound         = errors.New("role not found")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAlreadyRegistered  = errors.New("an account with this email already exists")
)

// Kind classifies an error for callers deciding how to react.
type Kind int

const (
	KindDependency Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindAuthentication
	KindCompensation
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindCompensation:
		return "compensation"
	default:
		return "dependency"
	}
}

var sentinelKinds = map[error]Kind{
	ErrInvalidInput:         KindValidation,
	ErrRoleNotAssignable:    KindValidation,
	ErrProtectedMembership:  KindValidation,
	ErrDefaultTenant:        KindValidation,
	ErrDuplicateMembership:  KindConflict,
	ErrTenantAlreadyExists:  KindConflict,
	ErrSeatLimitExceeded:    KindConflict,
	ErrAlreadyRegistered:    KindConflict,
	ErrNotMember:            KindNotFound,
	ErrPrincipalNotFound:    KindNotFound,
	ErrOrganizationNotFound: KindNotFound,
	ErrMembershipNotFound:   KindNotFound,
	ErrProfileNotFound:      KindNotFound,
	ErrPlanNotFound:         KindNotFound,
	ErrRoleNotFound:         KindNotFound,
	ErrInvalidCredentials:   KindAuthentication,
}

// Error is a classified engine error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a classified error.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Invalid builds a validation error from a message.
func Invalid(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvalidInput}, args...)...)}
}

// Wrap classifies err for op. Already classified errors pass through untouched,
// known sentinels get their kind and everything else is a dependency failure.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	for sentinel, kind := range sentinelKinds {
		if errors.Is(err, sentinel) {
			return &Error{Kind: kind, Op: op, Err: err}
		}
	}
	return &Error{Kind: KindDependency, Op: op, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	for sentinel, kind := range sentinelKinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindDependency
}

// HasKind reports whether any classified error in err's tree has kind. Unlike
// KindOf it also inspects every branch of a multi-error.
func HasKind(err error, kind Kind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *Error:
		if e.Kind == kind {
			return true
		}
		return HasKind(e.Err, kind)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if HasKind(inner, kind) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return HasKind(e.Unwrap(), kind)
	}
	return false
}
