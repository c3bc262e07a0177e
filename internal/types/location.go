package types

import (
	"strings"
	"time"
)

// Address is a reverse-geocoded postal address.
type Address struct {
	City           string `json:"city,omitempty"`
	Country        string `json:"country,omitempty"`
	District       string `json:"district,omitempty"`
	ISOCountryCode string `json:"isoCountryCode,omitempty"`
	Name           string `json:"name,omitempty"`
	PostalCode     string `json:"postalCode,omitempty"`
	Region         string `json:"region,omitempty"`
	Street         string `json:"street,omitempty"`
	StreetNumber   string `json:"streetNumber,omitempty"`
	Subregion      string `json:"subregion,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
}

// Short renders the address as "street number, city, country" skipping blanks.
func (a *Address) Short() string {
	if a == nil {
		return ""
	}
	street := strings.TrimSpace(strings.Join([]string{a.Street, a.StreetNumber}, " "))
	parts := make([]string, 0, 3)
	for _, p := range []string{street, a.City, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Location is a position fix plus its address, which may be nil.
type Location struct {
	Coordinates Coordinates `json:"coordinates"`
	Address     *Address    `json:"address"`
	AcquiredAt  time.Time   `json:"acquired_at"`
}
