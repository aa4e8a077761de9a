package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/shelfsight/backend/pkg/logger"
)

// FeedClient fetches the per-display SKU catalog from the inventory API.
type FeedClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewFeedClient(baseURL, apiKey string, timeout time.Duration) *FeedClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &FeedClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchCatalog retrieves the catalog for a display on a given date. The feed
// payload is {"items": [{"name": ..., "shelf_no": ..., "facing_touching": ...,
// "include": ...}]}.
func (c *FeedClient) FetchCatalog(ctx context.Context, displayID, date string) ([]Item, error) {
	params := url.Values{}
	params.Add("display_id", displayID)
	if date != "" {
		params.Add("date", date)
	}

	reqURL := fmt.Sprintf("%s/displays/catalog?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inventory feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var feedResp struct {
		Items []Item `json:"items"`
	}

	if err := json.Unmarshal(body, &feedResp); err != nil {
		return nil, fmt.Errorf("failed to parse feed response: %w", err)
	}

	items := Normalize(feedResp.Items)

	logger.Info("Catalog fetched",
		zap.String("display_id", displayID),
		zap.Int("items", len(items)),
	)

	return items, nil
}
