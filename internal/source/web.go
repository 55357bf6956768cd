package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Anya2605/HealthVerify-AI/internal/config"
	"github.com/Anya2605/HealthVerify-AI/internal/model"
)

var (
	phonePattern = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	yearPattern  = regexp.MustCompile(`20\d{2}`)
	tagPattern   = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptBlocks = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
)

var addressKeywords = []string{"address", "location", "office", "clinic"}

// WebClient probes for a provider website at predictable domains derived
// from the provider's name and compares the contact details published
// there against the roster input.
type WebClient struct {
	userAgent  string
	maxBody    int64
	httpClient *http.Client
	candidates candidateFunc
}

// candidateFunc produces the URLs to probe for a given provider name.
type candidateFunc func(fullName string) []string

// WebOption customizes a WebClient.
type WebOption func(*WebClient)

// WithWebHTTPClient overrides the HTTP client, mainly for tests.
func WithWebHTTPClient(hc *http.Client) WebOption {
	return func(c *WebClient) { c.httpClient = hc }
}

// WithCandidateURLs overrides candidate URL construction, mainly for tests.
func WithCandidateURLs(fn func(fullName string) []string) WebOption {
	return func(c *WebClient) { c.candidates = fn }
}

// NewWebClient builds the web presence probe.
func NewWebClient(cfg config.WebConfig, opts ...WebOption) *WebClient {
	maxKB := cfg.MaxBodyKB
	if maxKB <= 0 {
		maxKB = 512
	}
	c := &WebClient{
		userAgent:  cfg.UserAgent,
		maxBody:    int64(maxKB) * 1024,
		httpClient: newHTTPClient(cfg.TimeoutSecs),
	}
	c.candidates = c.defaultCandidates
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *WebClient) Name() string { return model.SourceWeb }

// defaultCandidates derives likely practice domains from the provider name:
// the name collapsed to a slug at .com, with and without www, and with an
// "md" suffix.
func (c *WebClient) defaultCandidates(fullName string) []string {
	slug := strings.ToLower(strings.TrimSpace(fullName))
	slug = strings.TrimPrefix(slug, "dr. ")
	slug = strings.TrimPrefix(slug, "dr ")
	slug = strings.ReplaceAll(slug, " ", "")
	slug = strings.ReplaceAll(slug, ".", "")
	if slug == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("https://www.%s.com", slug),
		fmt.Sprintf("https://%s.com", slug),
		fmt.Sprintf("https://www.%smd.com", slug),
	}
}

// Check searches for the provider's website and grades the contact details
// found there. Without a name, city, and state there is nothing to search
// for and the result is an inconclusive 50.
func (c *WebClient) Check(ctx context.Context, p model.Provider) model.SourceResult {
	res := model.SourceResult{Source: model.SourceWeb}

	if p.FullName == "" || p.City == "" || p.State == "" {
		res.Confidence = 50
		res.Error = "insufficient information for web search"
		return res
	}

	siteURL := c.findWebsite(ctx, p.FullName)
	if siteURL == "" {
		res.Confidence = 50
		res.Error = "no website found"
		return res
	}

	web, err := c.extractContactInfo(ctx, siteURL)
	if err != nil {
		zap.L().Debug("contact extraction failed", zap.String("url", siteURL), zap.Error(err))
		res.Confidence = 50
		res.Error = "contact extraction failed: " + err.Error()
		return res
	}

	res.Valid = true
	res.Confidence = 50
	res.Web = web

	if p.Phone != "" && web.PhoneOnSite != "" && phoneSuffixMatch(p.Phone, web.PhoneOnSite) {
		res.Confidence = 75
		web.Matches = append(web.Matches, "phone")
	}

	if p.PracticeAddress != "" && web.AddressOnSite != "" {
		sim := similarity(strings.ToLower(p.PracticeAddress), strings.ToLower(web.AddressOnSite))
		if sim > 0.7 {
			if res.Confidence < 75 {
				res.Confidence = 75
			}
			web.Matches = append(web.Matches, "address")
		}
	}

	if len(web.Matches) >= 2 {
		res.Confidence = 75
	}
	if len(web.Matches) == 0 && (web.PhoneOnSite != "" || web.AddressOnSite != "") {
		res.Confidence = 60
	}
	return res
}

// findWebsite probes each candidate URL and returns the first that answers
// with a 200. Probe failures are not retried.
func (c *WebClient) findWebsite(ctx context.Context, fullName string) string {
	for _, u := range c.candidates(fullName) {
		if ctx.Err() != nil {
			return ""
		}
		if c.urlExists(ctx, u) {
			return u
		}
	}
	return ""
}

func (c *WebClient) urlExists(ctx context.Context, u string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode == http.StatusOK
}

// extractContactInfo pulls the first phone number, address-looking line,
// email, and copyright year out of the page text.
func (c *WebClient) extractContactInfo(ctx context.Context, u string) (*model.WebData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, err
	}

	text := stripHTML(string(body))
	web := &model.WebData{URL: u}

	web.PhoneOnSite = phonePattern.FindString(text)
	web.EmailOnSite = emailPattern.FindString(text)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		for _, kw := range addressKeywords {
			if strings.Contains(lower, kw) {
				web.AddressOnSite = line
				break
			}
		}
		if web.AddressOnSite != "" {
			break
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "©") || strings.Contains(strings.ToLower(line), "copyright") {
			if year := yearPattern.FindString(line); year != "" {
				web.LastUpdated = year
				break
			}
		}
	}

	return web, nil
}

// stripHTML reduces an HTML document to newline-separated visible text.
func stripHTML(html string) string {
	html = scriptBlocks.ReplaceAllString(html, "\n")
	text := tagPattern.ReplaceAllString(html, "\n")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&copy;", "©")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
