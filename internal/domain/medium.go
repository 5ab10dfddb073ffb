// Package domain contains the referer attribution model shared across the service.
package domain

// Medium is the coarse attribution category of a referer source.
type Medium string

// The closed set of attribution mediums.
const (
	MediumUnknown  Medium = "unknown"
	MediumSearch   Medium = "search"
	MediumInternal Medium = "internal"
	MediumSocial   Medium = "social"
	MediumEmail    Medium = "email"
	MediumPaid     Medium = "paid"
)

// MediumFromString maps a canonical lowercase name to its Medium.
// The match is case-sensitive. An unrecognized name returns false so that
// dataset loading can reject it instead of silently defaulting to unknown.
func MediumFromString(s string) (Medium, bool) {
	switch m := Medium(s); m {
	case MediumUnknown, MediumSearch, MediumInternal, MediumSocial, MediumEmail, MediumPaid:
		return m, true
	default:
		return "", false
	}
}

// String returns the canonical lowercase name.
func (m Medium) String() string {
	return string(m)
}
