// Package ingest parses provider rosters from CSV and XLSX files into
// provider records, standardizing vendor-specific column names.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

// headerAliases maps common roster column variants to canonical names.
var headerAliases = map[string]string{
	"name":           "full_name",
	"provider_name":  "full_name",
	"doctor_name":    "full_name",
	"address":        "practice_address",
	"street":         "practice_address",
	"phone_number":   "phone",
	"telephone":      "phone",
	"zip":            "zip_code",
	"zipcode":        "zip_code",
	"postal_code":    "zip_code",
	"pin_code":       "zip_code",
	"specialization": "specialty",
	"doctor_id":      "provider_id",
	"id":             "provider_id",
	"npi_number":     "npi",
}

// RowError records a roster row that could not be turned into a provider.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result holds the providers parsed from a roster plus per-row failures.
type Result struct {
	Providers []model.Provider `json:"providers"`
	Skipped   []RowError       `json:"skipped,omitempty"`
}

// File parses a roster file, dispatching on extension.
func File(path string) (*Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSVFile(path)
	case ".xlsx", ".xls":
		return XLSX(path, XLSXOptions{})
	default:
		return nil, eris.Errorf("ingest: unsupported file format %q", filepath.Ext(path))
	}
}

// standardizeHeader lowercases a column name, collapses spaces to
// underscores, and resolves known aliases.
func standardizeHeader(name string) string {
	h := strings.ToLower(strings.TrimSpace(name))
	h = strings.ReplaceAll(h, " ", "_")
	if canonical, ok := headerAliases[h]; ok {
		return canonical
	}
	return h
}

// headerIndex maps canonical column names to their position in the header
// row. Later duplicates are ignored.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		canonical := standardizeHeader(name)
		if canonical == "" {
			continue
		}
		if _, seen := idx[canonical]; !seen {
			idx[canonical] = i
		}
	}
	return idx
}

var titleCaser = cases.Title(language.English)

// normalizeName title-cases names that arrived all-upper or all-lower.
// Mixed-case input is kept as written.
func normalizeName(name string) string {
	if name == strings.ToUpper(name) || name == strings.ToLower(name) {
		return titleCaser.String(strings.ToLower(name))
	}
	return name
}

func cell(cells []string, idx map[string]int, column string) string {
	i, ok := idx[column]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// providerFromRow builds a provider from one roster row. A row needs at
// least a name; everything else is filled in when present.
func providerFromRow(cells []string, idx map[string]int, row int) (model.Provider, *RowError) {
	p := model.Provider{
		ProviderID:      cell(cells, idx, "provider_id"),
		NPI:             cell(cells, idx, "npi"),
		FirstName:       cell(cells, idx, "first_name"),
		LastName:        cell(cells, idx, "last_name"),
		FullName:        cell(cells, idx, "full_name"),
		Specialty:       cell(cells, idx, "specialty"),
		PracticeAddress: cell(cells, idx, "practice_address"),
		City:            cell(cells, idx, "city"),
		State:           strings.ToUpper(cell(cells, idx, "state")),
		ZipCode:         cell(cells, idx, "zip_code"),
		Phone:           cell(cells, idx, "phone"),
		Email:           cell(cells, idx, "email"),
		Website:         cell(cells, idx, "website"),
	}

	if p.FullName == "" && (p.FirstName != "" || p.LastName != "") {
		p.FullName = strings.TrimSpace(p.FirstName + " " + p.LastName)
	}
	if p.FullName == "" {
		return model.Provider{}, &RowError{Row: row, Reason: "missing provider name"}
	}

	p.FullName = normalizeName(p.FullName)
	p.FirstName = normalizeName(p.FirstName)
	p.LastName = normalizeName(p.LastName)
	p.City = normalizeName(p.City)

	if p.ProviderID == "" {
		p.ProviderID = fmt.Sprintf("PRV-%s", uuid.New().String()[:8])
	}
	return p, nil
}

// collect turns raw rows (header first) into a Result.
func collect(rows [][]string) (*Result, error) {
	if len(rows) == 0 {
		return nil, eris.New("ingest: file has no rows")
	}

	idx := headerIndex(rows[0])
	if _, ok := idx["full_name"]; !ok {
		if _, first := idx["first_name"]; !first {
			return nil, eris.New("ingest: no name column found in header")
		}
	}

	res := &Result{}
	for i, cells := range rows[1:] {
		row := i + 2 // 1-based, after the header
		if isEmptyRow(cells) {
			continue
		}
		p, rowErr := providerFromRow(cells, idx, row)
		if rowErr != nil {
			res.Skipped = append(res.Skipped, *rowErr)
			continue
		}
		res.Providers = append(res.Providers, p)
	}
	return res, nil
}

func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
