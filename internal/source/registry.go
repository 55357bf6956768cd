package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Anya2605/HealthVerify-AI/internal/config"
	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/resilience"
)

// RegistryClient validates NPI numbers against the CMS NPI registry and
// cross-checks the registry record against the roster input.
type RegistryClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.Policy
}

// RegistryOption customizes a RegistryClient.
type RegistryOption func(*RegistryClient)

// WithRegistryHTTPClient overrides the HTTP client, mainly for tests.
func WithRegistryHTTPClient(hc *http.Client) RegistryOption {
	return func(c *RegistryClient) { c.httpClient = hc }
}

// NewRegistryClient builds the NPI registry client.
func NewRegistryClient(cfg config.RegistryConfig, retry resilience.Policy, opts ...RegistryOption) *RegistryClient {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 10
	}
	c := &RegistryClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: newHTTPClient(cfg.TimeoutSecs),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		retry:      retry,
	}
	c.retry.OnRetry = resilience.RetryLogger(model.SourceRegistry, "lookup")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RegistryClient) Name() string { return model.SourceRegistry }

type npiResponse struct {
	ResultCount int `json:"result_count"`
	Results     []struct {
		EnumerationType string `json:"enumeration_type"`
		Basic           struct {
			FirstName        string `json:"first_name"`
			LastName         string `json:"last_name"`
			OrganizationName string `json:"organization_name"`
			TelephoneNumber  string `json:"telephone_number"`
			Status           string `json:"status"`
		} `json:"basic"`
		Taxonomies []struct {
			Desc    string `json:"desc"`
			Primary bool   `json:"primary"`
		} `json:"taxonomies"`
		Addresses []struct {
			Address1    string `json:"address_1"`
			City        string `json:"city"`
			State       string `json:"state"`
			PostalCode  string `json:"postal_code"`
			CountryCode string `json:"country_code"`
		} `json:"addresses"`
	} `json:"results"`
}

// Check validates the provider's NPI. A malformed NPI is rejected locally
// without any network traffic. A registry hit starts at confidence 100 and
// drops to 60 if any compared field disagrees with the roster input.
func (c *RegistryClient) Check(ctx context.Context, p model.Provider) model.SourceResult {
	res := model.SourceResult{Source: model.SourceRegistry}
	falseVal := false

	if len(p.NPI) != 10 || !isDigits(p.NPI) {
		res.Error = "invalid NPI format"
		res.MatchesInput = &falseVal
		return res
	}

	if err := c.limiter.Wait(ctx); err != nil {
		res.Error = err.Error()
		res.MatchesInput = &falseVal
		return res
	}

	lookupURL := fmt.Sprintf("%s/?number=%s&version=2.1", c.baseURL, url.QueryEscape(p.NPI))
	data, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*npiResponse, error) {
		var out npiResponse
		if err := getJSON(ctx, c.httpClient, lookupURL, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		zap.L().Warn("registry lookup failed", zap.String("npi", p.NPI), zap.Error(err))
		res.Error = "registry request failed: " + err.Error()
		res.MatchesInput = &falseVal
		return res
	}

	if data.ResultCount == 0 || len(data.Results) == 0 {
		res.Error = "NPI not found in registry"
		res.MatchesInput = &falseVal
		return res
	}

	hit := data.Results[0]
	name := strings.TrimSpace(hit.Basic.FirstName + " " + hit.Basic.LastName)
	if name == "" {
		name = hit.Basic.OrganizationName
	}

	reg := &model.RegistryData{
		NPI:             p.NPI,
		Name:            name,
		OrgName:         hit.Basic.OrganizationName,
		Phone:           hit.Basic.TelephoneNumber,
		EnumerationType: hit.EnumerationType,
		Status:          hit.Basic.Status,
	}
	if len(hit.Taxonomies) > 0 {
		reg.Taxonomy = hit.Taxonomies[0].Desc
	}
	if len(hit.Addresses) > 0 {
		addr := hit.Addresses[0]
		reg.Street = addr.Address1
		reg.City = addr.City
		reg.State = addr.State
		reg.PostalCode = addr.PostalCode
		reg.CountryCode = addr.CountryCode
	}

	res.Valid = true
	res.Confidence = 100
	res.Registry = reg
	trueVal := true
	res.MatchesInput = &trueVal

	c.compareWithInput(p, &res)
	return res
}

// compareWithInput cross-checks the registry record against the roster
// input. Any single mismatch caps confidence at 60 and flips MatchesInput;
// further mismatches never lower it below that floor.
func (c *RegistryClient) compareWithInput(p model.Provider, res *model.SourceResult) {
	reg := res.Registry
	matches := true

	if reg.Name != "" && p.FullName != "" && !nameMatch(reg.Name, p.FullName) {
		matches = false
	}

	regCity := strings.ToLower(strings.TrimSpace(reg.City))
	inCity := strings.ToLower(strings.TrimSpace(p.City))
	regState := strings.ToLower(strings.TrimSpace(reg.State))
	inState := strings.ToLower(strings.TrimSpace(p.State))
	if regCity != "" && inCity != "" && (regCity != inCity || regState != inState) {
		matches = false
	}

	if reg.Phone != "" && p.Phone != "" && !phoneSuffixMatch(reg.Phone, p.Phone) {
		matches = false
	}

	if !matches {
		res.MatchesInput = &matches
		if res.Confidence > 60 {
			res.Confidence = 60
		}
	}
}
