// Package synth generates synthetic provider rosters for demos and load
// testing. Records are produced in a controlled quality mix so downstream
// validation exercises every outcome.
package synth

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

// Quality labels the data condition of a generated record.
type Quality string

const (
	QualityComplete   Quality = "complete"
	QualityIncomplete Quality = "incomplete"
	QualityOutdated   Quality = "outdated"
	QualityErrors     Quality = "errors"
)

// Record pairs a generated provider with its quality label.
type Record struct {
	Provider model.Provider `json:"provider"`
	Quality  Quality        `json:"quality"`
}

var firstNames = []string{
	"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael",
	"Linda", "David", "Elizabeth", "William", "Barbara", "Richard", "Susan",
	"Joseph", "Jessica", "Thomas", "Sarah", "Charles", "Karen",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
	"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez",
	"Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
}

var specialties = []string{
	"Internal Medicine", "Family Medicine", "Pediatrics", "Cardiology",
	"Dermatology", "Orthopedics", "Neurology", "Psychiatry", "Oncology",
	"Radiology",
}

var streets = []string{
	"Main St", "Oak Ave", "Maple Dr", "Washington Blvd", "Park Rd",
	"Lake St", "Hill Rd", "Cedar Ln", "Elm St", "River Rd",
}

type city struct {
	name  string
	state string
	zip   string
}

var cities = []city{
	{"Boston", "MA", "02101"},
	{"Chicago", "IL", "60601"},
	{"Houston", "TX", "77001"},
	{"Phoenix", "AZ", "85001"},
	{"Seattle", "WA", "98101"},
	{"Denver", "CO", "80201"},
	{"Atlanta", "GA", "30301"},
	{"Portland", "OR", "97201"},
	{"Nashville", "TN", "37201"},
	{"Columbus", "OH", "43201"},
}

// Generator produces deterministic synthetic rosters for a given seed.
type Generator struct {
	rng *rand.Rand
}

// New creates a generator seeded for reproducible output.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate produces n records in the standard quality mix: 60% complete,
// 20% incomplete, 15% outdated, 5% with data errors.
func (g *Generator) Generate(n int) []Record {
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		q := g.pickQuality()
		records = append(records, Record{
			Provider: g.provider(i+1, q),
			Quality:  q,
		})
	}
	return records
}

func (g *Generator) pickQuality() Quality {
	r := g.rng.Float64()
	switch {
	case r < 0.60:
		return QualityComplete
	case r < 0.80:
		return QualityIncomplete
	case r < 0.95:
		return QualityOutdated
	default:
		return QualityErrors
	}
}

func (g *Generator) provider(idx int, q Quality) model.Provider {
	first := firstNames[g.rng.Intn(len(firstNames))]
	last := lastNames[g.rng.Intn(len(lastNames))]
	loc := cities[g.rng.Intn(len(cities))]

	p := model.Provider{
		ProviderID:      fmt.Sprintf("PRV-%04d", idx),
		NPI:             g.npi(q),
		FirstName:       first,
		LastName:        last,
		FullName:        fmt.Sprintf("Dr. %s %s", first, last),
		Specialty:       specialties[g.rng.Intn(len(specialties))],
		PracticeAddress: fmt.Sprintf("%d %s", 100+g.rng.Intn(9900), streets[g.rng.Intn(len(streets))]),
		City:            loc.name,
		State:           loc.state,
		ZipCode:         loc.zip,
		Phone:           g.phone(q),
		Email:           fmt.Sprintf("dr.%s.%s@example.com", strings.ToLower(first), strings.ToLower(last)),
	}

	switch q {
	case QualityComplete:
		if g.rng.Float64() < 0.3 {
			p.Website = fmt.Sprintf("https://dr%s.com", strings.ToLower(last))
		}
	case QualityIncomplete:
		g.blankFields(&p)
	case QualityOutdated:
		p.PracticeAddress += " (MOVED)"
		p.Email = fmt.Sprintf("%s%s@oldmail.example.com", strings.ToLower(first), strings.ToLower(last))
	case QualityErrors:
		p.FullName = g.typo(p.FullName)
		p.ZipCode = fmt.Sprintf("%04d", g.rng.Intn(10000))
	}
	return p
}

// npi returns a 10-digit number except for error records, which get a
// truncated one that fails format validation.
func (g *Generator) npi(q Quality) string {
	if q == QualityErrors {
		return fmt.Sprintf("%09d", g.rng.Intn(1_000_000_000))
	}
	return fmt.Sprintf("1%09d", g.rng.Intn(1_000_000_000))
}

func (g *Generator) phone(q Quality) string {
	switch q {
	case QualityErrors:
		return fmt.Sprintf("%07d", 1_000_000+g.rng.Intn(9_000_000))
	case QualityOutdated:
		return fmt.Sprintf("555-000-%04d", g.rng.Intn(10000))
	default:
		return fmt.Sprintf("%d%02d-555-%04d", 2+g.rng.Intn(8), g.rng.Intn(100), g.rng.Intn(10000))
	}
}

// blankFields clears two to four optional fields on an incomplete record.
func (g *Generator) blankFields(p *model.Provider) {
	clearers := []func(){
		func() { p.Phone = "" },
		func() { p.Email = "" },
		func() { p.ZipCode = "" },
		func() { p.Specialty = "" },
		func() { p.PracticeAddress = "" },
	}
	g.rng.Shuffle(len(clearers), func(i, j int) { clearers[i], clearers[j] = clearers[j], clearers[i] })
	n := 2 + g.rng.Intn(3)
	for _, clear := range clearers[:n] {
		clear()
	}
}

func (g *Generator) typo(text string) string {
	if len(text) < 2 {
		return text
	}
	pos := g.rng.Intn(len(text) - 1)
	switch g.rng.Intn(3) {
	case 0: // swap adjacent characters
		b := []byte(text)
		b[pos], b[pos+1] = b[pos+1], b[pos]
		return string(b)
	case 1: // drop a character
		return text[:pos] + text[pos+1:]
	default: // insert a character
		return text[:pos] + string(rune('a'+g.rng.Intn(26))) + text[pos:]
	}
}

var rosterHeader = []string{
	"provider_id", "npi", "first_name", "last_name", "full_name", "specialty",
	"practice_address", "city", "state", "zip_code", "phone", "email",
	"website", "data_quality",
}

// WriteCSV writes records as a roster CSV consumable by the ingest package.
func WriteCSV(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "synth: create roster file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(rosterHeader); err != nil {
		return eris.Wrap(err, "synth: write header")
	}
	for _, r := range records {
		p := r.Provider
		row := []string{
			p.ProviderID, p.NPI, p.FirstName, p.LastName, p.FullName, p.Specialty,
			p.PracticeAddress, p.City, p.State, p.ZipCode, p.Phone, p.Email,
			p.Website, string(r.Quality),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "synth: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "synth: flush roster")
}
