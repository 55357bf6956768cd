package fusion

import (
	"fmt"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

// GenerateRecommendations produces the ordered action items for a fused and
// flagged result. A clean high-confidence result short-circuits to the
// no-action pair.
func GenerateRecommendations(res *model.ValidationResult) []string {
	if res.OverallConfidence >= 80 && len(res.Flags) == 0 {
		return []string{
			"Provider successfully validated across all sources",
			"High confidence score - no manual review needed",
		}
	}

	var recs []string

	if !res.Validations[model.SourceRegistry].Valid {
		recs = append(recs, "CRITICAL: NPI not found in registry - verify NPI number")
	}
	if res.Validations[model.SourceAddress].Confidence < 60 {
		recs = append(recs, "WARNING: Address validation shows low confidence - verify address")
	}
	if res.Validations[model.SourcePhone].Confidence < 60 {
		recs = append(recs, "WARNING: Phone number validation failed - verify phone number")
	}

	critical, warning := 0, 0
	for _, f := range res.Flags {
		switch f.Type {
		case model.FlagCritical:
			critical++
		case model.FlagWarning:
			warning++
		}
	}
	if critical > 0 {
		recs = append(recs, fmt.Sprintf("CRITICAL: %d critical issue(s) require immediate attention", critical))
	}
	if warning > 0 {
		recs = append(recs, fmt.Sprintf("WARNING: %d warning(s) need review", warning))
	}

	if len(recs) == 0 {
		recs = append(recs, "Provider data validated with minor issues")
	}
	return recs
}
