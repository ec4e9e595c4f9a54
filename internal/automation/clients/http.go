// Package clients provides HTTP-backed implementations of the automation
// core's externally-owned ports (spec.md §6: inventory, product, supplier,
// purchase order and forecast data all live in other services). Each client
// follows the teacher's search.Client shape (internal/search/elasticsearch.go):
// a baseURL, a plain *http.Client, and small request/response DTOs marshaled
// as JSON.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type httpBase struct {
	baseURL string
	client  httpDoer
}

// httpDoer is satisfied by both *http.Client and *circuitbreaker.HTTPClient,
// letting the forecast client opt into circuit-breaker protection (spec.md
// §5: forecast RPCs are a named blocking/suspension point) without forcing
// it on every adapter.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func newHTTPBase(baseURL string, client httpDoer) httpBase {
	return httpBase{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (b httpBase) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return err
	}
	return b.do(req, out)
}

func (b httpBase) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return b.do(req, out)
}

func (b httpBase) do(req *http.Request, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(raw))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func defaultClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
