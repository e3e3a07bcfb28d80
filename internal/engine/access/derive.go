package access

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"orgconsole/internal/platform/models"
)

// Expiration is the derived state of a tenant's subscription window.
type Expiration int

const (
	ExpirationActive Expiration = iota
	ExpirationExpired
	// ExpirationUnknown marks a tenant whose subscription reference could not be read.
	ExpirationUnknown
)

func (e Expiration) String() string {
	switch e {
	case ExpirationExpired:
		return "expired"
	case ExpirationUnknown:
		return "unknown"
	default:
		return "active"
	}
}

func (e Expiration) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// IsExpired reports whether org's subscription end date exists and lies before now.
func IsExpired(org *models.Organization, now time.Time) bool {
	return org.SubscriptionEndDate != nil && *org.SubscriptionEndDate < now.Unix()
}

func ExpirationOf(org *models.Organization, now time.Time) Expiration {
	if IsExpired(org, now) {
		return ExpirationExpired
	}
	return ExpirationActive
}

// EffectiveBlocked is the membership's block flag OR the organization's.
// The default tenant is never blocked whatever its flags say. Either argument may be nil.
func EffectiveBlocked(m *models.Membership, org *models.Organization) bool {
	if org != nil && org.IsDefault {
		return false
	}
	blocked := false
	if m != nil {
		blocked = m.IsBlocked
	}
	if org != nil {
		blocked = blocked || org.IsBlocked
	}
	return blocked
}

// MaxFullNameLength bounds a stored full name in runes.
const MaxFullNameLength = 100

// NormalizeFullName trims name for storage. A blank name becomes nil so the
// email fallback applies again. ok is false when name is too long.
func NormalizeFullName(name string) (fullName *string, ok bool) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxFullNameLength {
		return nil, false
	}
	if name == "" {
		return nil, true
	}
	return &name, true
}

// DisplayName returns the stored full name, falling back to a readable form of
// the email's local part ("jane.doe@x.io" becomes "Jane Doe").
func DisplayName(fullName *string, email string) string {
	if fullName != nil {
		if name := strings.TrimSpace(*fullName); name != "" {
			return name
		}
	}

	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	local = strings.NewReplacer(".", " ", "_", " ").Replace(local)

	words := strings.Fields(local)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
