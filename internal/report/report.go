// Package report aggregates validation results into summary statistics and
// XLSX workbooks for review.
package report

import (
	"math"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

// Summary is the roll-up of a set of validation results.
type Summary struct {
	TotalProviders int     `json:"total_providers"`
	Validated      int     `json:"validated"`
	Partial        int     `json:"partial"`
	Flagged        int     `json:"flagged"`
	Errored        int     `json:"errored"`
	ValidationRate float64 `json:"validation_rate"`
	AvgConfidence  float64 `json:"average_confidence"`

	TotalFlags    int `json:"total_flags"`
	CriticalFlags int `json:"critical_flags"`
	WarningFlags  int `json:"warning_flags"`

	NPIValidRate     float64 `json:"npi_validation_rate"`
	AddressValidRate float64 `json:"address_validation_rate"`
	PhoneValidRate   float64 `json:"phone_validation_rate"`
}

// Summarize computes summary statistics over validation results. An empty
// input yields a zero Summary.
func Summarize(results []model.ValidationResult) Summary {
	s := Summary{TotalProviders: len(results)}
	if len(results) == 0 {
		return s
	}

	var confidenceSum float64
	var npiValid, addressValid, phoneValid int

	for _, r := range results {
		switch r.Status {
		case model.StatusValidated:
			s.Validated++
		case model.StatusPartial:
			s.Partial++
		case model.StatusFlagged:
			s.Flagged++
		case model.StatusError:
			s.Errored++
		}

		confidenceSum += r.OverallConfidence

		for _, f := range r.Flags {
			s.TotalFlags++
			switch f.Type {
			case model.FlagCritical:
				s.CriticalFlags++
			case model.FlagWarning:
				s.WarningFlags++
			}
		}

		if r.Validations[model.SourceRegistry].Valid {
			npiValid++
		}
		if r.Validations[model.SourceAddress].Valid {
			addressValid++
		}
		if r.Validations[model.SourcePhone].Valid {
			phoneValid++
		}
	}

	total := float64(len(results))
	s.ValidationRate = round2(float64(s.Validated) / total * 100)
	s.AvgConfidence = round2(confidenceSum / total)
	s.NPIValidRate = round2(float64(npiValid) / total * 100)
	s.AddressValidRate = round2(float64(addressValid) / total * 100)
	s.PhoneValidRate = round2(float64(phoneValid) / total * 100)
	return s
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
