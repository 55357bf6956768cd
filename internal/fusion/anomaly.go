package fusion

import "github.com/Anya2605/HealthVerify-AI/internal/model"

// DetectAnomalies runs the stateless pattern checks over a fused result and
// returns human-readable anomaly strings. Anomalies are informational only;
// they never change confidence or status.
func DetectAnomalies(res *model.ValidationResult) []string {
	var anomalies []string
	overall := res.OverallConfidence

	if overall < 60 && len(res.Validations) > 0 {
		allValid := true
		for _, v := range res.Validations {
			if !v.Valid {
				allValid = false
				break
			}
		}
		if allValid {
			anomalies = append(anomalies, "Low overall confidence despite all sources being valid")
		}
	}

	if overall > 80 && !res.Validations[model.SourceRegistry].Valid {
		anomalies = append(anomalies, "High confidence but NPI validation failed")
	}

	addressConf := res.Validations[model.SourceAddress].Confidence
	if addressConf > 40 && addressConf < 70 {
		anomalies = append(anomalies, "Address validation shows partial match - may need review")
	}

	if phone := res.Validations[model.SourcePhone].Phone; phone != nil {
		if phone.LineType == "unknown" && overall > 70 {
			anomalies = append(anomalies, "Phone number may be disconnected despite high confidence")
		}
	}

	return anomalies
}
