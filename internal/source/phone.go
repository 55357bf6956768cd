package source

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Anya2605/HealthVerify-AI/internal/config"
	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/resilience"
)

// PhoneClient validates phone numbers through a NumVerify-style carrier
// lookup API.
type PhoneClient struct {
	baseURL     string
	apiKey      string
	countryCode string
	httpClient  *http.Client
	retry       resilience.Policy
}

// PhoneOption customizes a PhoneClient.
type PhoneOption func(*PhoneClient)

// WithPhoneHTTPClient overrides the HTTP client, mainly for tests.
func WithPhoneHTTPClient(hc *http.Client) PhoneOption {
	return func(c *PhoneClient) { c.httpClient = hc }
}

// NewPhoneClient builds the phone validation client.
func NewPhoneClient(cfg config.PhoneConfig, retry resilience.Policy, opts ...PhoneOption) *PhoneClient {
	country := cfg.CountryCode
	if country == "" {
		country = "US"
	}
	c := &PhoneClient{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.Key,
		countryCode: country,
		httpClient:  newHTTPClient(cfg.TimeoutSecs),
		retry:       retry,
	}
	c.retry.OnRetry = resilience.RetryLogger(model.SourcePhone, "lookup")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PhoneClient) Name() string { return model.SourcePhone }

type phoneResponse struct {
	Valid               bool   `json:"valid"`
	LineType            string `json:"line_type"`
	Carrier             string `json:"carrier"`
	CountryName         string `json:"country_name"`
	CountryCode         string `json:"country_code"`
	LocalFormat         string `json:"local_format"`
	InternationalFormat string `json:"international_format"`
}

// Check validates the provider's phone number. Numbers with fewer than ten
// digits are rejected locally at confidence 40 without any network traffic.
// The country prefix is stripped from eleven-digit national numbers.
func (c *PhoneClient) Check(ctx context.Context, p model.Provider) model.SourceResult {
	res := model.SourceResult{Source: model.SourcePhone}

	cleaned := digits(p.Phone)
	if len(cleaned) < 10 {
		res.Confidence = 40
		res.Error = "invalid phone format"
		return res
	}
	if len(cleaned) == 11 && strings.HasPrefix(cleaned, "1") {
		cleaned = cleaned[1:]
	}

	q := url.Values{}
	q.Set("access_key", c.apiKey)
	q.Set("number", cleaned)
	q.Set("country_code", c.countryCode)
	q.Set("format", "1")
	lookupURL := c.baseURL + "?" + q.Encode()

	data, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*phoneResponse, error) {
		var out phoneResponse
		if err := getJSON(ctx, c.httpClient, lookupURL, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		zap.L().Warn("phone lookup failed", zap.String("provider_id", p.ProviderID), zap.Error(err))
		res.Confidence = 50
		res.Error = "phone lookup failed: " + err.Error()
		return res
	}

	if !data.Valid {
		res.Confidence = 40
		res.Error = "phone number is not valid"
		return res
	}

	lineType := data.LineType
	if lineType == "" {
		lineType = "unknown"
	}

	res.Valid = true
	res.Confidence = phoneConfidence(lineType, data.Carrier)
	res.Phone = &model.PhoneData{
		Number:              cleaned,
		Country:             data.CountryName,
		CountryCode:         data.CountryCode,
		Carrier:             data.Carrier,
		LineType:            lineType,
		ValidFormat:         true,
		LocalFormat:         data.LocalFormat,
		InternationalFormat: data.InternationalFormat,
	}
	return res
}

// phoneConfidence grades a carrier-lookup hit. Base 70 for a valid format;
// a confirmed carrier or a mobile/landline line type raises it to 85. An
// unknown line type with no carrier is treated as likely disconnected.
func phoneConfidence(lineType, carrier string) float64 {
	confidence := 70.0
	if carrier != "" {
		confidence = 85
	}

	switch lineType {
	case "mobile", "landline":
		if confidence < 85 {
			confidence = 85
		}
	case "voip":
		if confidence < 70 {
			confidence = 70
		}
	case "unknown":
		confidence = 70
		if carrier == "" {
			confidence = 20
		}
	}
	return confidence
}
