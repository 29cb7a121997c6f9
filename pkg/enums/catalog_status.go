package enums

import "fmt"

// CatalogStatus is the derived sellability state shared by variants and items.
// It is a cached value recomputed on every pricing write, never authoritative.
type CatalogStatus string

const (
	CatalogStatusDraft  CatalogStatus = "draft"
	CatalogStatusActive CatalogStatus = "active"
)

var validCatalogStatuses = []CatalogStatus{
	CatalogStatusDraft,
	CatalogStatusActive,
}

// String implements fmt.Stringer.
func (s CatalogStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CatalogStatus.
func (s CatalogStatus) IsValid() bool {
	for _, candidate := range validCatalogStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCatalogStatus converts raw input into a CatalogStatus.
func ParseCatalogStatus(value string) (CatalogStatus, error) {
	for _, candidate := range validCatalogStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid catalog status %q", value)
}
