package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Address is a shipping address value object.
// Country is an ISO 3166-1 alpha-2 code.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// NewAddress trims and validates an address. Country defaults to US.
func NewAddress(line1, line2, city, state, postalCode, country string) (Address, error) {
	a := Address{
		Line1:      strings.TrimSpace(line1),
		Line2:      strings.TrimSpace(line2),
		City:       strings.TrimSpace(city),
		State:      strings.ToUpper(strings.TrimSpace(state)),
		PostalCode: strings.TrimSpace(postalCode),
		Country:    strings.ToUpper(strings.TrimSpace(country)),
	}
	if a.Country == "" {
		a.Country = "US"
	}
	if err := a.Validate(); err != nil {
		return Address{}, err
	}
	return a, nil
}

// Validate checks required fields and lengths
func (a Address) Validate() error {
	switch {
	case a.Line1 == "":
		return errors.New("address line1 is required")
	case len(a.Line1) > 200 || len(a.Line2) > 200:
		return errors.New("address lines cannot exceed 200 characters")
	case a.City == "":
		return errors.New("city is required")
	case len(a.City) > 100:
		return errors.New("city cannot exceed 100 characters")
	case a.PostalCode == "":
		return errors.New("postal code is required")
	case len(a.PostalCode) > 20:
		return errors.New("postal code cannot exceed 20 characters")
	case len(a.Country) != 2:
		return fmt.Errorf("country must be a 2-letter code, got %q", a.Country)
	}
	if a.Country == "US" && a.State == "" {
		return errors.New("state is required for US addresses")
	}
	return nil
}

// IsEmpty reports whether no field is set
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// String returns a single-line rendering
func (a Address) String() string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	cityLine := a.City
	if a.State != "" {
		cityLine += ", " + a.State
	}
	if a.PostalCode != "" {
		cityLine += " " + a.PostalCode
	}
	parts = append(parts, cityLine, a.Country)
	return strings.Join(parts, ", ")
}

// Value implements driver.Valuer, storing the address as JSON
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
	return json.Unmarshal(data, a)
}
