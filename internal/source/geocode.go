package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/Anya2605/HealthVerify-AI/internal/config"
	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/resilience"
)

// GeocodeClient validates practice addresses through a two-provider
// cascade: a TomTom-style primary and a LocationIQ-style fallback. The
// fallback runs when the primary result is invalid or below confidence 60,
// and its result wins only when strictly more confident.
type GeocodeClient struct {
	primaryBaseURL   string
	primaryKey       string
	secondaryBaseURL string
	secondaryKey     string
	httpClient       *http.Client
	retry            resilience.Policy
}

// GeocodeOption customizes a GeocodeClient.
type GeocodeOption func(*GeocodeClient)

// WithGeocodeHTTPClient overrides the HTTP client, mainly for tests.
func WithGeocodeHTTPClient(hc *http.Client) GeocodeOption {
	return func(c *GeocodeClient) { c.httpClient = hc }
}

// NewGeocodeClient builds the address validation client.
func NewGeocodeClient(cfg config.GeocodeConfig, retry resilience.Policy, opts ...GeocodeOption) *GeocodeClient {
	c := &GeocodeClient{
		primaryBaseURL:   cfg.PrimaryBaseURL,
		primaryKey:       cfg.PrimaryKey,
		secondaryBaseURL: cfg.SecondaryBaseURL,
		secondaryKey:     cfg.SecondaryKey,
		httpClient:       newHTTPClient(cfg.TimeoutSecs),
		retry:            retry,
	}
	c.retry.OnRetry = resilience.RetryLogger(model.SourceAddress, "geocode")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *GeocodeClient) Name() string { return model.SourceAddress }

// Check geocodes the provider's practice address. An incomplete address
// tuple is rejected locally at confidence 30 without any network traffic.
func (c *GeocodeClient) Check(ctx context.Context, p model.Provider) model.SourceResult {
	if !p.HasFullAddress() {
		return model.SourceResult{
			Source:     model.SourceAddress,
			Confidence: 30,
			Error:      "incomplete address",
		}
	}

	fullAddress := fmt.Sprintf("%s, %s, %s %s", p.PracticeAddress, p.City, p.State, p.ZipCode)

	res := c.geocodePrimary(ctx, p, fullAddress)
	if !res.Valid || res.Confidence < 60 {
		fallback := c.geocodeSecondary(ctx, p, fullAddress)
		if fallback.Confidence > res.Confidence {
			res = fallback
		}
	}
	return res
}

type primaryResponse struct {
	Results []struct {
		Position struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"position"`
		Address struct {
			FreeformAddress    string `json:"freeformAddress"`
			Municipality       string `json:"municipality"`
			CountrySubdivision string `json:"countrySubdivision"`
			PostalCode         string `json:"postalCode"`
		} `json:"address"`
	} `json:"results"`
}

func (c *GeocodeClient) geocodePrimary(ctx context.Context, p model.Provider, fullAddress string) model.SourceResult {
	res := model.SourceResult{Source: model.SourceAddress}

	lookupURL := fmt.Sprintf("%s/%s.json?key=%s&limit=1",
		c.primaryBaseURL, url.PathEscape(fullAddress), url.QueryEscape(c.primaryKey))

	data, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*primaryResponse, error) {
		var out primaryResponse
		if err := getJSON(ctx, c.httpClient, lookupURL, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		zap.L().Warn("primary geocoder failed", zap.String("provider_id", p.ProviderID), zap.Error(err))
		res.Confidence = 20
		res.Error = "geocode request failed: " + err.Error()
		return res
	}

	if len(data.Results) == 0 {
		res.Confidence = 30
		res.Error = "no results found"
		return res
	}

	hit := data.Results[0]
	quality, confidence := matchQuality(p.City, p.State, p.ZipCode,
		hit.Address.Municipality, hit.Address.CountrySubdivision, hit.Address.PostalCode)

	formatted := hit.Address.FreeformAddress
	if formatted == "" {
		formatted = fullAddress
	}

	res.Valid = true
	res.Confidence = confidence
	res.Address = &model.AddressData{
		FormattedAddress: formatted,
		Latitude:         hit.Position.Lat,
		Longitude:        hit.Position.Lon,
		City:             hit.Address.Municipality,
		State:            hit.Address.CountrySubdivision,
		ZipCode:          hit.Address.PostalCode,
		MatchQuality:     quality,
	}
	return res
}

type secondaryResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Address     struct {
		City     string `json:"city"`
		Town     string `json:"town"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
	} `json:"address"`
}

func (c *GeocodeClient) geocodeSecondary(ctx context.Context, p model.Provider, fullAddress string) model.SourceResult {
	res := model.SourceResult{Source: model.SourceAddress}

	q := url.Values{}
	q.Set("key", c.secondaryKey)
	q.Set("q", fullAddress)
	q.Set("format", "json")
	q.Set("limit", "1")
	lookupURL := c.secondaryBaseURL + "?" + q.Encode()

	data, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]secondaryResult, error) {
		var out []secondaryResult
		if err := getJSON(ctx, c.httpClient, lookupURL, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		zap.L().Warn("fallback geocoder failed", zap.String("provider_id", p.ProviderID), zap.Error(err))
		res.Confidence = 20
		res.Error = "geocode request failed: " + err.Error()
		return res
	}

	if len(data) == 0 {
		res.Confidence = 30
		res.Error = "no results found"
		return res
	}

	hit := data[0]
	city := hit.Address.City
	if city == "" {
		city = hit.Address.Town
	}

	quality, confidence := matchQuality(p.City, p.State, p.ZipCode,
		city, hit.Address.State, hit.Address.Postcode)

	lat, _ := strconv.ParseFloat(hit.Lat, 64)
	lon, _ := strconv.ParseFloat(hit.Lon, 64)

	formatted := hit.DisplayName
	if formatted == "" {
		formatted = fullAddress
	}

	res.Valid = true
	res.Confidence = confidence
	res.Address = &model.AddressData{
		FormattedAddress: formatted,
		Latitude:         lat,
		Longitude:        lon,
		City:             city,
		State:            hit.Address.State,
		ZipCode:          hit.Address.Postcode,
		MatchQuality:     quality,
	}
	return res
}
