package model

import "time"

// Canonical validation source names. These are the keys of
// ValidationResult.Validations and the Field values flags reference.
const (
	SourceRegistry = "npi"
	SourceAddress  = "address"
	SourcePhone    = "phone"
	SourceWeb      = "website"
)

// Status is the categorical outcome of one validation run.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusValidated Status = "VALIDATED"
	StatusPartial   Status = "PARTIAL"
	StatusFlagged   Status = "FLAGGED"
	StatusError     Status = "ERROR"
)

// SourceResult is the uniform outcome of a single source check. Exactly one
// of the per-source payloads (Registry/Address/Phone/Web) is populated on a
// usable response; Error is set instead when the check failed outright. A
// low-confidence result may carry neither.
type SourceResult struct {
	Valid      bool    `json:"valid"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	Error      string  `json:"error,omitempty"`

	// MatchesInput is tri-state: nil when the source performs no
	// input comparison, otherwise the comparison verdict.
	MatchesInput *bool `json:"matches_input,omitempty"`

	Registry *RegistryData `json:"registry,omitempty"`
	Address  *AddressData  `json:"address,omitempty"`
	Phone    *PhoneData    `json:"phone,omitempty"`
	Web      *WebData      `json:"web,omitempty"`
}

// RegistryData is the provider record returned by the NPI registry.
type RegistryData struct {
	NPI             string `json:"npi"`
	Name            string `json:"name"`
	OrgName         string `json:"organization_name,omitempty"`
	Taxonomy        string `json:"taxonomy,omitempty"`
	Street          string `json:"address_1,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
	CountryCode     string `json:"country_code,omitempty"`
	Phone           string `json:"phone,omitempty"`
	EnumerationType string `json:"enumeration_type,omitempty"`
	Status          string `json:"status,omitempty"`
}

// AddressData is a geocoded address with its match quality tier.
type AddressData struct {
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	City             string  `json:"city"`
	State            string  `json:"state"`
	ZipCode          string  `json:"zip_code"`
	MatchQuality     string  `json:"match_quality"` // exact, close, partial, none
}

// PhoneData is the carrier-lookup response for a phone number.
type PhoneData struct {
	Number              string `json:"number"`
	Country             string `json:"country,omitempty"`
	CountryCode         string `json:"country_code,omitempty"`
	Carrier             string `json:"carrier"`
	LineType            string `json:"line_type"` // mobile, landline, voip, unknown
	ValidFormat         bool   `json:"valid_format"`
	LocalFormat         string `json:"local_format,omitempty"`
	InternationalFormat string `json:"international_format,omitempty"`
}

// WebData is the contact information scraped from a candidate provider site.
type WebData struct {
	URL           string   `json:"url"`
	PhoneOnSite   string   `json:"phone_on_site,omitempty"`
	AddressOnSite string   `json:"address_on_site,omitempty"`
	EmailOnSite   string   `json:"email_on_site,omitempty"`
	LastUpdated   string   `json:"last_updated,omitempty"`
	Matches       []string `json:"matches,omitempty"` // fields that agreed with input
}

// ValidationResult is the append-only record of one validation run. A new
// run produces a new record; nothing mutates an existing one.
type ValidationResult struct {
	ProviderID        string                  `json:"provider_id"`
	NPI               string                  `json:"npi"`
	Name              string                  `json:"name"`
	Timestamp         time.Time               `json:"validation_timestamp"`
	Duration          time.Duration           `json:"validation_duration"`
	Validations       map[string]SourceResult `json:"validations"`
	OverallConfidence float64                 `json:"overall_confidence"`
	Status            Status                  `json:"validation_status"`
	Flags             []Flag                  `json:"flags"`
	Anomalies         []string                `json:"anomalies,omitempty"`
	Recommendations   []string                `json:"recommendations"`
	SourcesUsed       []string                `json:"sources_used"`
	Error             string                  `json:"error,omitempty"`
}
