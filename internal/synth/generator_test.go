package synth

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anya2605/HealthVerify-AI/internal/ingest"
)

func TestGenerateCount(t *testing.T) {
	records := New(1).Generate(50)
	assert.Len(t, records, 50)

	for i, r := range records {
		assert.NotEmpty(t, r.Provider.FullName, "record %d", i)
		assert.NotEmpty(t, r.Provider.City, "record %d", i)
		assert.NotEmpty(t, r.Provider.State, "record %d", i)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := New(42).Generate(20)
	b := New(42).Generate(20)
	assert.Equal(t, a, b)
}

func TestQualityDistribution(t *testing.T) {
	records := New(7).Generate(2000)

	counts := map[Quality]int{}
	for _, r := range records {
		counts[r.Quality]++
	}

	total := float64(len(records))
	assert.InDelta(t, 0.60, float64(counts[QualityComplete])/total, 0.05)
	assert.InDelta(t, 0.20, float64(counts[QualityIncomplete])/total, 0.05)
	assert.InDelta(t, 0.15, float64(counts[QualityOutdated])/total, 0.05)
	assert.InDelta(t, 0.05, float64(counts[QualityErrors])/total, 0.03)
}

func TestQualityShapes(t *testing.T) {
	records := New(3).Generate(500)

	for _, r := range records {
		p := r.Provider
		switch r.Quality {
		case QualityComplete:
			assert.Len(t, p.NPI, 10)
			assert.NotEmpty(t, p.Phone)
		case QualityOutdated:
			assert.Contains(t, p.PracticeAddress, "(MOVED)")
			assert.True(t, strings.HasPrefix(p.Phone, "555-000-"))
		case QualityErrors:
			assert.Len(t, p.NPI, 9)
			assert.Len(t, p.ZipCode, 4)
		case QualityIncomplete:
			blank := 0
			for _, field := range []string{p.Phone, p.Email, p.ZipCode, p.Specialty, p.PracticeAddress} {
				if field == "" {
					blank++
				}
			}
			assert.GreaterOrEqual(t, blank, 2)
		}
	}
}

func TestWriteCSVRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	records := New(9).Generate(25)

	require.NoError(t, WriteCSV(path, records))

	res, err := ingest.CSVFile(path)
	require.NoError(t, err)
	assert.Len(t, res.Providers, 25)
	assert.Equal(t, records[0].Provider.ProviderID, res.Providers[0].ProviderID)
	assert.Equal(t, records[0].Provider.FullName, res.Providers[0].FullName)
}
