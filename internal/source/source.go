// Package source implements the external validation clients: the NPI
// registry, the geocoding cascade, carrier phone lookup, and the web
// presence probe. Every client returns a uniform model.SourceResult and
// never an error; failures are folded into the result's confidence.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Anya2605/HealthVerify-AI/internal/model"
	"github.com/Anya2605/HealthVerify-AI/internal/resilience"
)

// Client is a single validation source. Check never returns an error:
// network failures, bad input, and upstream misses are all encoded in the
// SourceResult so the fusion layer sees every source uniformly.
type Client interface {
	// Name is the canonical source key (one of the model.Source* constants).
	Name() string
	Check(ctx context.Context, p model.Provider) model.SourceResult
}

func newHTTPClient(timeoutSecs int) *http.Client {
	if timeoutSecs <= 0 {
		timeoutSecs = 30
	}
	return &http.Client{Timeout: time.Duration(timeoutSecs) * time.Second}
}

// getJSON issues a GET and decodes the JSON body into out. Retryable HTTP
// statuses come back as TransientError so the retry policy can act on them.
func getJSON(ctx context.Context, hc *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eris.Wrap(err, "source: build request")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return eris.Wrap(err, "source: execute request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return eris.Wrap(err, "source: response status")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "source: decode response")
	}
	return nil
}
