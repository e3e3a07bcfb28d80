package tenancy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"orgconsole/internal/platform/models"
)

// NewProfile builds an unsaved profile row for principalID.
func NewProfile(principalID string, fullName, activeOrgID *string) *models.Profile {
	now := time.Now().Unix()
	return &models.Profile{
		ID:                   "prf_" + uuid.NewString(),
		PrincipalID:          principalID,
		FullName:             fullName,
		ActiveOrganizationID: activeOrgID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// EnsureProfile returns the principal's profile, inserting an empty one first if
// none exists. Safe to call repeatedly. created reports whether this call inserted it.
func EnsureProfile(ctx context.Context, store ProfileStore, principalID string, fullName *string) (profile *models.Profile, created bool, err error) {
	const op = "ensure profile"

	profile, err = store.GetProfile(ctx, principalID)
	if err == nil {
		return profile, false, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, false, Wrap(op, err)
	}

	profile = NewProfile(principalID, fullName, nil)
	if err := store.InsertProfile(ctx, profile); err != nil {
		// Lost a race with a concurrent ensure; the row exists now.
		if existing, getErr := store.GetProfile(ctx, principalID); getErr == nil {
			return existing, false, nil
		}
		return nil, false, Wrap(op, err)
	}
	return profile, true, nil
}
