package helpers

import (
	"strings"

	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
)

// Address is the delivery payload submitted at checkout.
type Address struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Governorate string `json:"governorate"`
	City        string `json:"city"`
	AddressLine string `json:"address_line"`
	Notes       string `json:"notes"`
}

// NormalizeAddress trims every field.
func NormalizeAddress(a Address) Address {
	return Address{
		Name:        strings.TrimSpace(a.Name),
		Phone:       strings.TrimSpace(a.Phone),
		Email:       strings.ToLower(strings.TrimSpace(a.Email)),
		Governorate: strings.TrimSpace(a.Governorate),
		City:        strings.TrimSpace(a.City),
		AddressLine: strings.TrimSpace(a.AddressLine),
		Notes:       strings.TrimSpace(a.Notes),
	}
}

// ValidateAddress requires name, phone, governorate and address line. The
// error lists every missing field.
func ValidateAddress(a Address) error {
	var missing []string
	if a.Name == "" {
		missing = append(missing, "name")
	}
	if a.Phone == "" {
		missing = append(missing, "phone")
	}
	if a.Governorate == "" {
		missing = append(missing, "governorate")
	}
	if a.AddressLine == "" {
		missing = append(missing, "address_line")
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "missing required address fields").
		WithDetails(map[string]any{"missing_fields": missing})
}
