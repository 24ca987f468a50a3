package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultSheetyField is the array holding rows in a Sheety response.
const DefaultSheetyField = "sheet1"

// SheetyClient fetches rows from a Sheety JSON endpoint.
type SheetyClient struct {
	url    string
	field  string
	client *http.Client
}

type SheetyOption func(*SheetyClient)

// WithField sets the response property holding the rows.
func WithField(field string) SheetyOption {
	return func(c *SheetyClient) {
		if field != "" {
			c.field = field
		}
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) SheetyOption {
	return func(c *SheetyClient) { c.client = hc }
}

func NewSheetyClient(url string, timeout time.Duration, opts ...SheetyOption) *SheetyClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &SheetyClient{
		url:    url,
		field:  DefaultSheetyField,
		client: &http.Client{Timeout: timeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *SheetyClient) Name() string { return "sheety" }

// Fetch downloads the whole sheet. Any failure is wrapped in ErrTransport.
func (c *SheetyClient) Fetch(ctx context.Context) ([]ExternalRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: API request failed with status %d", ErrTransport, resp.StatusCode)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	raw, ok := payload[c.field]
	if !ok || len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: invalid data format received from API", ErrTransport)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: decode rows: %v", ErrTransport, err)
	}
	rows := make([]ExternalRecord, 0, len(items))
	for _, item := range items {
		var rec ExternalRecord
		// Mistyped fields stay empty and Reconcile skips the row as incomplete.
		_ = json.Unmarshal(item, &rec)
		rows = append(rows, rec)
	}
	return rows, nil
}
