package model

import "time"

// Provider is a healthcare-provider record as ingested from a roster file,
// the HTTP API, or the synthetic generator. It is immutable input to
// validation: the pipeline reads it and never writes it back.
type Provider struct {
	ProviderID      string    `json:"provider_id"`
	NPI             string    `json:"npi"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	FullName        string    `json:"full_name"`
	Specialty       string    `json:"specialty"`
	PracticeAddress string    `json:"practice_address"`
	City            string    `json:"city"`
	State           string    `json:"state"`
	ZipCode         string    `json:"zip_code"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email,omitempty"`
	Website         string    `json:"website,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// HasFullAddress reports whether every component of the practice address
// tuple is present. The geocoder refuses to guess at partial addresses.
func (p Provider) HasFullAddress() bool {
	return p.PracticeAddress != "" && p.City != "" && p.State != "" && p.ZipCode != ""
}
