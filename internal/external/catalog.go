package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// CatalogClient reads movie metadata from the external content provider.
// The booking core only relies on the opaque movie ID; nothing returned
// here is validated.
type CatalogClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type CatalogConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type CatalogMovie struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ReleaseDate string   `json:"release_date"`
	RuntimeMin  int      `json:"runtime"`
	Genres      []string `json:"genres"`
	PosterPath  string   `json:"poster_path"`
}

type searchResponse struct {
	Results []CatalogMovie `json:"results"`
}

func NewCatalogClient(cfg CatalogConfig) *CatalogClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &CatalogClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (cc *CatalogClient) GetMovie(ctx context.Context, movieID string) (*CatalogMovie, error) {
	endpoint := fmt.Sprintf("%s/movie/%s?api_key=%s", cc.baseURL, url.PathEscape(movieID), url.QueryEscape(cc.apiKey))

	var movie CatalogMovie
	if err := cc.get(ctx, endpoint, &movie); err != nil {
		return nil, err
	}

	return &movie, nil
}

func (cc *CatalogClient) Search(ctx context.Context, query string) ([]CatalogMovie, error) {
	endpoint := fmt.Sprintf("%s/search/movie?api_key=%s&query=%s", cc.baseURL, url.QueryEscape(cc.apiKey), url.QueryEscape(query))

	var result searchResponse
	if err := cc.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	return result.Results, nil
}

func (cc *CatalogClient) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := cc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("movie not found")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
