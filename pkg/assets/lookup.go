package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Lookup resolves the alternate sprite name of a mob from an external source
type Lookup interface {
	Resolve(ctx context.Context, mob SpriteRef) (string, error)
}

// LookupResponse is the body returned by the sprite lookup service
type LookupResponse struct {
	ID     string `json:"id"`
	Sprite string `json:"sprite"`
}

// HTTPLookup queries GET {BaseURL}/{id} and reads the sprite name from the JSON body
type HTTPLookup struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPLookup(baseURL string) *HTTPLookup {
	return &HTTPLookup{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

func (l *HTTPLookup) Resolve(ctx context.Context, mob SpriteRef) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.BaseURL+"/"+mob.ID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build lookup request: %w", err)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch sprite name: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body LookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Sprite == "" {
		return "", fmt.Errorf("no sprite known for mob %s", mob.ID)
	}

	return body.Sprite, nil
}
