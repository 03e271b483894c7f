package model

import "time"

// Vendor represents a known supplier or payee.
type Vendor struct {
	CreatedAt         time.Time
	DefaultCategoryID *int64
	Name              string
	ID                int64
}

// HasDefaultCategory reports whether the vendor has a category to suggest.
func (v *Vendor) HasDefaultCategory() bool {
	return v.DefaultCategoryID != nil
}

// VendorAlias is an alternative spelling that identifies a vendor in free text.
type VendorAlias struct {
	CreatedAt time.Time
	Alias     string
	ID        int64
	VendorID  int64
}
