// Package flagger converts per-source validation outcomes into
// severity-tagged flags. The rule list is deterministic and
// order-preserving; consumers rely on stable flag ordering.
package flagger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

// Generate runs the flag rules against a fused validation result. Rules
// fire in a fixed order. The registry, address, phone, and web rule pairs
// are each mutually exclusive; the two cross-source rules at the end are
// cumulative with everything before them.
func Generate(res *model.ValidationResult, p model.Provider) []model.Flag {
	var flags []model.Flag

	registry := res.Validations[model.SourceRegistry]
	address := res.Validations[model.SourceAddress]
	phone := res.Validations[model.SourcePhone]
	web := res.Validations[model.SourceWeb]

	if !registry.Valid {
		flags = append(flags, newFlag(p.ProviderID, model.FlagCritical, model.SeverityHigh, model.SourceRegistry,
			"NPI not found in registry or invalid",
			map[string]any{
				"error": errorOrUnknown(registry.Error),
				"npi":   p.NPI,
			}))
	} else if registry.MatchesInput != nil && !*registry.MatchesInput {
		registryName := ""
		if registry.Registry != nil {
			registryName = registry.Registry.Name
		}
		flags = append(flags, newFlag(p.ProviderID, model.FlagCritical, model.SeverityHigh, model.SourceRegistry,
			"NPI belongs to different provider - name mismatch",
			map[string]any{
				"input_name": p.FullName,
				"npi_name":   registryName,
			}))
	}

	if !address.Valid {
		flags = append(flags, newFlag(p.ProviderID, model.FlagCritical, model.SeverityHigh, model.SourceAddress,
			"Address completely invalid or cannot be geocoded",
			map[string]any{
				"error":         errorOrUnknown(address.Error),
				"input_address": fmt.Sprintf("%s, %s, %s", p.PracticeAddress, p.City, p.State),
			}))
	} else if address.Confidence < 60 {
		quality := "unknown"
		if address.Address != nil {
			quality = address.Address.MatchQuality
		}
		flags = append(flags, newFlag(p.ProviderID, model.FlagWarning, model.SeverityMedium, model.SourceAddress,
			"Address partial match only - verify address",
			map[string]any{
				"confidence":    address.Confidence,
				"match_quality": quality,
			}))
	}

	if !phone.Valid {
		flags = append(flags, newFlag(p.ProviderID, model.FlagWarning, model.SeverityMedium, model.SourcePhone,
			"Phone number validation failed",
			map[string]any{
				"error":       errorOrUnknown(phone.Error),
				"input_phone": p.Phone,
			}))
	} else if phone.Phone != nil && phone.Phone.LineType == "unknown" && phone.Phone.Carrier == "" {
		flags = append(flags, newFlag(p.ProviderID, model.FlagWarning, model.SeverityMedium, model.SourcePhone,
			"Phone number may be disconnected - carrier unknown",
			map[string]any{
				"line_type": phone.Phone.LineType,
			}))
	}

	if !web.Valid {
		flags = append(flags, newFlag(p.ProviderID, model.FlagInfo, model.SeverityLow, model.SourceWeb,
			"No website found for provider",
			map[string]any{
				"error": errorOrUnknown(web.Error),
			}))
	} else if web.Confidence < 60 {
		var matches []string
		if web.Web != nil {
			matches = web.Web.Matches
		}
		flags = append(flags, newFlag(p.ProviderID, model.FlagWarning, model.SeverityMedium, model.SourceWeb,
			"Website information contradicts input data",
			map[string]any{
				"confidence": web.Confidence,
				"matches":    matches,
			}))
	}

	validCount := 0
	for _, v := range res.Validations {
		if v.Valid {
			validCount++
		}
	}
	if validCount == 1 && len(res.Validations) > 1 {
		flags = append(flags, newFlag(p.ProviderID, model.FlagWarning, model.SeverityMedium, "multiple",
			"Multiple data source conflicts - only one source validated successfully",
			map[string]any{
				"valid_sources": validCount,
				"total_sources": len(res.Validations),
			}))
	}

	if !registry.Valid && !address.Valid && !phone.Valid {
		flags = append(flags, newFlag(p.ProviderID, model.FlagCritical, model.SeverityHigh, "all",
			"All contact methods failed validation",
			map[string]any{
				"npi_valid":     registry.Valid,
				"address_valid": address.Valid,
				"phone_valid":   phone.Valid,
			}))
	}

	return flags
}

func newFlag(providerID string, flagType model.FlagType, severity model.Severity, field, message string, details map[string]any) model.Flag {
	return model.Flag{
		ID:         uuid.New().String(),
		ProviderID: providerID,
		Type:       flagType,
		Severity:   severity,
		Field:      field,
		Message:    message,
		Details:    details,
		CreatedAt:  time.Now().UTC(),
	}
}

func errorOrUnknown(msg string) string {
	if msg == "" {
		return "Unknown error"
	}
	return msg
}
