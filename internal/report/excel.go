package report

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

var detailHeader = []string{
	"Provider ID", "NPI", "Provider Name", "Validation Status", "Overall Confidence",
	"NPI Valid", "NPI Confidence",
	"Address Valid", "Address Confidence",
	"Phone Valid", "Phone Confidence",
	"Website Valid", "Website Confidence",
	"Flag Count", "Critical Flags", "Warning Flags",
	"Validation Timestamp", "Duration (seconds)",
}

var flagHeader = []string{
	"Provider ID", "Flag Type", "Severity", "Field", "Message", "Created At", "Resolved",
}

// WriteExcel writes a three-sheet workbook (Summary, Validation Results,
// Flags) to path.
func WriteExcel(path string, results []model.ValidationResult) error {
	f := xlsx.NewFile()

	if err := writeSummarySheet(f, Summarize(results)); err != nil {
		return err
	}
	if err := writeDetailSheet(f, results); err != nil {
		return err
	}
	if err := writeFlagSheet(f, results); err != nil {
		return err
	}

	return eris.Wrap(f.Save(path), "report: save workbook")
}

func writeSummarySheet(f *xlsx.File, s Summary) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	rows := []struct {
		label string
		value string
	}{
		{"Total Providers", strconv.Itoa(s.TotalProviders)},
		{"Validated", strconv.Itoa(s.Validated)},
		{"Partial", strconv.Itoa(s.Partial)},
		{"Flagged", strconv.Itoa(s.Flagged)},
		{"Errored", strconv.Itoa(s.Errored)},
		{"Validation Rate (%)", formatFloat(s.ValidationRate)},
		{"Average Confidence", formatFloat(s.AvgConfidence)},
		{"Total Flags", strconv.Itoa(s.TotalFlags)},
		{"Critical Flags", strconv.Itoa(s.CriticalFlags)},
		{"Warning Flags", strconv.Itoa(s.WarningFlags)},
		{"NPI Validation Rate (%)", formatFloat(s.NPIValidRate)},
		{"Address Validation Rate (%)", formatFloat(s.AddressValidRate)},
		{"Phone Validation Rate (%)", formatFloat(s.PhoneValidRate)},
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.label)
		row.AddCell().SetString(r.value)
	}
	return nil
}

func writeDetailSheet(f *xlsx.File, results []model.ValidationResult) error {
	sheet, err := f.AddSheet("Validation Results")
	if err != nil {
		return eris.Wrap(err, "report: add detail sheet")
	}

	header := sheet.AddRow()
	for _, h := range detailHeader {
		header.AddCell().SetString(h)
	}

	for _, r := range results {
		critical, warning := 0, 0
		for _, fl := range r.Flags {
			switch fl.Type {
			case model.FlagCritical:
				critical++
			case model.FlagWarning:
				warning++
			}
		}

		row := sheet.AddRow()
		row.AddCell().SetString(r.ProviderID)
		row.AddCell().SetString(r.NPI)
		row.AddCell().SetString(r.Name)
		row.AddCell().SetString(string(r.Status))
		row.AddCell().SetString(formatFloat(r.OverallConfidence))
		for _, source := range []string{model.SourceRegistry, model.SourceAddress, model.SourcePhone, model.SourceWeb} {
			sr := r.Validations[source]
			row.AddCell().SetString(strconv.FormatBool(sr.Valid))
			row.AddCell().SetString(formatFloat(sr.Confidence))
		}
		row.AddCell().SetString(strconv.Itoa(len(r.Flags)))
		row.AddCell().SetString(strconv.Itoa(critical))
		row.AddCell().SetString(strconv.Itoa(warning))
		row.AddCell().SetString(r.Timestamp.UTC().Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(formatFloat(r.Duration.Seconds()))
	}
	return nil
}

func writeFlagSheet(f *xlsx.File, results []model.ValidationResult) error {
	sheet, err := f.AddSheet("Flags")
	if err != nil {
		return eris.Wrap(err, "report: add flag sheet")
	}

	header := sheet.AddRow()
	for _, h := range flagHeader {
		header.AddCell().SetString(h)
	}

	for _, r := range results {
		for _, fl := range r.Flags {
			row := sheet.AddRow()
			row.AddCell().SetString(fl.ProviderID)
			row.AddCell().SetString(string(fl.Type))
			row.AddCell().SetString(string(fl.Severity))
			row.AddCell().SetString(fl.Field)
			row.AddCell().SetString(fl.Message)
			row.AddCell().SetString(fl.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
			row.AddCell().SetString(strconv.FormatBool(fl.Resolved))
		}
	}
	return nil
}

func formatFloat(x float64) string {
	return fmt.Sprintf("%.2f", x)
}
