package types

import "strings"

// Address is the customer-facing postal address attached to shipments,
// basket billing, and address book entries. Stored as jsonb through the GORM
// json serializer.
type Address struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Address1    string  `json:"address1"`
	Address2    *string `json:"address2,omitempty"`
	City        string  `json:"city"`
	StateCode   string  `json:"stateCode"`
	PostalCode  string  `json:"postalCode"`
	CountryCode string  `json:"countryCode"`
	Phone       string  `json:"phone"`
}

// IsZero reports whether no field carries a value.
func (a Address) IsZero() bool {
	return a.FirstName == "" &&
		a.LastName == "" &&
		a.Address1 == "" &&
		(a.Address2 == nil || *a.Address2 == "") &&
		a.City == "" &&
		a.StateCode == "" &&
		a.PostalCode == "" &&
		a.CountryCode == "" &&
		a.Phone == ""
}

// Normalized returns a copy with surrounding whitespace trimmed and an empty
// Address2 collapsed to nil.
func (a Address) Normalized() Address {
	out := Address{
		FirstName:   strings.TrimSpace(a.FirstName),
		LastName:    strings.TrimSpace(a.LastName),
		Address1:    strings.TrimSpace(a.Address1),
		City:        strings.TrimSpace(a.City),
		StateCode:   strings.TrimSpace(a.StateCode),
		PostalCode:  strings.TrimSpace(a.PostalCode),
		CountryCode: strings.TrimSpace(a.CountryCode),
		Phone:       strings.TrimSpace(a.Phone),
	}
	if a.Address2 != nil {
		if trimmed := strings.TrimSpace(*a.Address2); trimmed != "" {
			out.Address2 = &trimmed
		}
	}
	return out
}
