package types

import "fmt"

// Category represents the intent category of a customer message or pattern
type Category string

const (
	CategoryPricing        Category = "pricing"
	CategoryHours          Category = "hours"
	CategoryBooking        Category = "booking"
	CategoryTechnicalIssue Category = "technical-issue"
	CategoryAccess         Category = "access"
	CategoryGeneral        Category = "general"
)

// AllCategories returns all valid categories
func AllCategories() []Category {
	return []Category{
		CategoryPricing,
		CategoryHours,
		CategoryBooking,
		CategoryTechnicalIssue,
		CategoryAccess,
		CategoryGeneral,
	}
}

// IsValid checks if the category is valid
func (c Category) IsValid() bool {
	switch c {
	case CategoryPricing,
		CategoryHours,
		CategoryBooking,
		CategoryTechnicalIssue,
		CategoryAccess,
		CategoryGeneral:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// ParseCategory parses a string into a Category
func ParseCategory(s string) (Category, error) {
	category := Category(s)
	if !category.IsValid() {
		return "", fmt.Errorf("invalid category: %s", s)
	}
	return category, nil
}
