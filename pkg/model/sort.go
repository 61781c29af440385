package model

// SortOrder represents the sort direction
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortRule is one key in a multi-key sort. Earlier rules take precedence.
type SortRule struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// ValidSortOrders returns all valid sort order values
func ValidSortOrders() []SortOrder {
	return []SortOrder{SortAsc, SortDesc}
}

// IsValidSortOrder checks if a string is a valid sort order
func IsValidSortOrder(s string) bool {
	for _, d := range ValidSortOrders() {
		if string(d) == s {
			return true
		}
	}
	return false
}

// Toggle returns the opposite order
func (o SortOrder) Toggle() SortOrder {
	if o == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// Indicator returns the arrow character for the sort order
func (o SortOrder) Indicator() string {
	if o == SortDesc {
		return "▼"
	}
	return "▲"
}

// SortIndicator returns the arrow for field when it is part of rules, along
// with its 1-based position in the chain.
func SortIndicator(rules []SortRule, field string) (string, int) {
	for i, r := range rules {
		if r.Field == field {
			return r.Order.Indicator(), i + 1
		}
	}
	return "", 0
}
