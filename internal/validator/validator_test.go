package validator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anya2605/HealthVerify-AI/internal/fusion"
	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/source"
)

type stubClient struct {
	name  string
	check func(ctx context.Context, p model.Provider) model.SourceResult
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) Check(ctx context.Context, p model.Provider) model.SourceResult {
	return s.check(ctx, p)
}

func fixedClient(name string, res model.SourceResult) source.Client {
	res.Source = name
	return &stubClient{name: name, check: func(context.Context, model.Provider) model.SourceResult {
		return res
	}}
}

func boolPtr(b bool) *bool { return &b }

func goodClients() []source.Client {
	return []source.Client{
		fixedClient(model.SourceRegistry, model.SourceResult{Valid: true, Confidence: 100, MatchesInput: boolPtr(true)}),
		fixedClient(model.SourceAddress, model.SourceResult{Valid: true, Confidence: 95, Address: &model.AddressData{MatchQuality: "exact"}}),
		fixedClient(model.SourcePhone, model.SourceResult{Valid: true, Confidence: 85, Phone: &model.PhoneData{LineType: "mobile", Carrier: "Verizon"}}),
		fixedClient(model.SourceWeb, model.SourceResult{Valid: true, Confidence: 75, Web: &model.WebData{Matches: []string{"phone"}}}),
	}
}

func testOrchestrator(clients []source.Client, opts ...Option) *Orchestrator {
	return New(fusion.NewScorer(fusion.DefaultWeights()), clients, opts...)
}

func testProvider(id string) model.Provider {
	return model.Provider{
		ProviderID: id,
		NPI:        "1234567890",
		FullName:   "Dr. Jane Doe",
	}
}

func TestValidateHappyPath(t *testing.T) {
	o := testOrchestrator(goodClients())

	res := o.Validate(context.Background(), testProvider("PRV-1"))

	assert.Equal(t, "PRV-1", res.ProviderID)
	assert.Equal(t, 93.0, res.OverallConfidence)
	assert.Equal(t, model.StatusValidated, res.Status)
	assert.Empty(t, res.Flags)
	assert.Empty(t, res.Anomalies)
	assert.Len(t, res.Validations, 4)
	assert.Equal(t, []string{
		model.SourceRegistry, model.SourceAddress, model.SourcePhone, model.SourceWeb,
	}, res.SourcesUsed)
	assert.Equal(t, []string{
		"Provider successfully validated across all sources",
		"High confidence score - no manual review needed",
	}, res.Recommendations)
	assert.False(t, res.Timestamp.IsZero())
}

func TestValidateFlagsDemoteStatus(t *testing.T) {
	clients := goodClients()
	// Web source fails: INFO flag, small confidence dip.
	clients[3] = fixedClient(model.SourceWeb, model.SourceResult{Valid: false, Confidence: 50, Error: "no website found"})

	o := testOrchestrator(clients)
	res := o.Validate(context.Background(), testProvider("PRV-1"))

	// 40 + 28.5 + 17 + 5 = 90.5, but the INFO flag blocks VALIDATED.
	assert.Equal(t, 90.5, res.OverallConfidence)
	assert.Equal(t, model.StatusPartial, res.Status)
	require.Len(t, res.Flags, 1)
	assert.Equal(t, model.FlagInfo, res.Flags[0].Type)
}

func TestValidateAllSourcesFailed(t *testing.T) {
	clients := []source.Client{
		fixedClient(model.SourceRegistry, model.SourceResult{Valid: false, Confidence: 0, Error: "invalid NPI format", MatchesInput: boolPtr(false)}),
		fixedClient(model.SourceAddress, model.SourceResult{Valid: false, Confidence: 30, Error: "incomplete address"}),
		fixedClient(model.SourcePhone, model.SourceResult{Valid: false, Confidence: 40, Error: "invalid phone format"}),
		fixedClient(model.SourceWeb, model.SourceResult{Valid: false, Confidence: 50, Error: "no website found"}),
	}

	o := testOrchestrator(clients)
	res := o.Validate(context.Background(), testProvider("PRV-1"))

	// 0 + 9 + 8 + 5 = 22, minus 15 mismatch penalty = 7
	assert.Equal(t, 7.0, res.OverallConfidence)
	assert.Equal(t, model.StatusFlagged, res.Status)

	fields := make([]string, len(res.Flags))
	for i, f := range res.Flags {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{
		model.SourceRegistry, model.SourceAddress, model.SourcePhone, model.SourceWeb, "all",
	}, fields)
}

func TestValidateRecoversPanicAsError(t *testing.T) {
	clients := goodClients()
	clients[1] = &stubClient{name: model.SourceAddress, check: func(context.Context, model.Provider) model.SourceResult {
		panic("geocoder blew up")
	}}

	o := testOrchestrator(clients)
	res := o.Validate(context.Background(), testProvider("PRV-1"))

	assert.Equal(t, model.StatusError, res.Status)
	assert.Contains(t, res.Error, "geocoder blew up")
	assert.Equal(t, "PRV-1", res.ProviderID)
}

func TestValidateIdempotent(t *testing.T) {
	o := testOrchestrator(goodClients())
	p := testProvider("PRV-1")

	first := o.Validate(context.Background(), p)
	second := o.Validate(context.Background(), p)

	assert.Equal(t, first.OverallConfidence, second.OverallConfidence)
	assert.Equal(t, first.Status, second.Status)
	require.Equal(t, len(first.Flags), len(second.Flags))
	for i := range first.Flags {
		assert.Equal(t, first.Flags[i].Message, second.Flags[i].Message)
		assert.Equal(t, first.Flags[i].Type, second.Flags[i].Type)
	}
}

func TestValidateBatchPreservesOrderAndIsolatesFailures(t *testing.T) {
	clients := goodClients()
	clients[0] = &stubClient{name: model.SourceRegistry, check: func(_ context.Context, p model.Provider) model.SourceResult {
		if p.ProviderID == "PRV-3" {
			panic("simulated fault")
		}
		return model.SourceResult{Valid: true, Confidence: 100, Source: model.SourceRegistry}
	}}

	o := testOrchestrator(clients, WithMaxConcurrent(2))

	providers := make([]model.Provider, 5)
	for i := range providers {
		providers[i] = testProvider("PRV-" + string(rune('1'+i)))
	}

	results := o.ValidateBatch(context.Background(), providers, nil)
	require.Len(t, results, 5)

	for i, res := range results {
		assert.Equal(t, providers[i].ProviderID, res.ProviderID, "results must be in input order")
		if res.ProviderID == "PRV-3" {
			assert.Equal(t, model.StatusError, res.Status)
		} else {
			assert.Equal(t, model.StatusValidated, res.Status)
		}
	}
}

func TestValidateBatchCallback(t *testing.T) {
	o := testOrchestrator(goodClients())

	var mu sync.Mutex
	var seen []string

	providers := []model.Provider{testProvider("A"), testProvider("B"), testProvider("C")}
	o.ValidateBatch(context.Background(), providers, func(res model.ValidationResult) {
		mu.Lock()
		seen = append(seen, res.ProviderID)
		mu.Unlock()
	})

	assert.ElementsMatch(t, []string{"A", "B", "C"}, seen)
}

func TestValidateBatchBoundsConcurrency(t *testing.T) {
	var current, peak atomic.Int32

	slow := &stubClient{name: model.SourceRegistry, check: func(context.Context, model.Provider) model.SourceResult {
		n := current.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		current.Add(-1)
		return model.SourceResult{Valid: true, Confidence: 100, Source: model.SourceRegistry}
	}}

	o := testOrchestrator([]source.Client{slow}, WithMaxConcurrent(2))

	providers := make([]model.Provider, 8)
	for i := range providers {
		providers[i] = testProvider("P")
	}
	o.ValidateBatch(context.Background(), providers, nil)

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestValidateBatchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := testOrchestrator(goodClients())
	results := o.ValidateBatch(ctx, []model.Provider{testProvider("PRV-1")}, nil)

	require.Len(t, results, 1)
	assert.Equal(t, model.StatusError, results[0].Status)
	assert.Contains(t, results[0].Error, "canceled")
}
