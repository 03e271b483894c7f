package model

// Category represents an expense category.
type Category struct {
	Name string
	Code string
	ID   int64
}

// Well-known category codes seeded by the initial migration.
const (
	CategoryCodeIngredients = "INGREDIENTS"
	CategoryCodeBeverages   = "BEVERAGES"
	CategoryCodeUtilities   = "UTILITIES"
	CategoryCodeRent        = "RENT"
	CategoryCodePayroll     = "PAYROLL"
	CategoryCodeSupplies    = "SUPPLIES"
	CategoryCodeMaintenance = "MAINTENANCE"
	CategoryCodeTransport   = "TRANSPORT"
	CategoryCodeMarketing   = "MARKETING"
	CategoryCodeFees        = "FEES"
	CategoryCodeOther       = "OTHER"
)
