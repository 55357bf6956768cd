// Package fusion combines per-source confidences into one overall score,
// surfaces anomalies, and derives the categorical validation status.
package fusion

import (
	"math"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

// Scorer fuses per-source results using weighted confidence aggregation
// with consistency penalties.
type Scorer struct {
	weights Weights
}

// NewScorer builds a Scorer with the given weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Fuse computes the overall confidence for a set of source results: the
// weighted sum of each source's confidence minus consistency penalties,
// clamped at zero and rounded to two decimals. A missing source contributes
// zero confidence.
func (s *Scorer) Fuse(validations map[string]model.SourceResult) float64 {
	registry := validations[model.SourceRegistry]
	address := validations[model.SourceAddress]
	phone := validations[model.SourcePhone]
	web := validations[model.SourceWeb]

	overall := registry.Confidence*s.weights.Registry +
		address.Confidence*s.weights.Address +
		phone.Confidence*s.weights.Phone +
		web.Confidence*s.weights.Web

	overall -= s.penalties(registry, address, phone)
	if overall < 0 {
		overall = 0
	}
	return math.Round(overall*100) / 100
}

// penalties computes the additive consistency penalties. All applicable
// penalties apply in the same pass:
//
//	+10  registry invalid while address or phone validated
//	 +5  exactly one of registry/address/phone validated
//	+15  registry record explicitly did not match the input
func (s *Scorer) penalties(registry, address, phone model.SourceResult) float64 {
	var penalty float64

	if !registry.Valid && (address.Valid || phone.Valid) {
		penalty += s.weights.Penalties.RegistryConflict
	}

	validCount := 0
	for _, valid := range []bool{registry.Valid, address.Valid, phone.Valid} {
		if valid {
			validCount++
		}
	}
	if validCount == 1 {
		penalty += s.weights.Penalties.SingleSource
	}

	if registry.MatchesInput != nil && !*registry.MatchesInput {
		penalty += s.weights.Penalties.InputMismatch
	}

	return penalty
}

// DeriveStatus maps a fused confidence and the generated flags to the
// categorical status. It is a pure function; the ERROR override happens at
// the orchestrator boundary, not here.
func DeriveStatus(overall float64, flags []model.Flag) model.Status {
	switch {
	case overall >= 80 && len(flags) == 0:
		return model.StatusValidated
	case overall >= 60:
		return model.StatusPartial
	default:
		return model.StatusFlagged
	}
}
