package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Qasimkhan563/urban-heat-explorer/internal/catalog"
)

// FetchCatalog retrieves a remote city catalog document (YAML or JSON).
func FetchCatalog(ctx context.Context, client *http.Client, url string) (*catalog.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	c, err := catalog.Decode(resp.Body)
	if err != nil {
		return nil, err
	}

	return c, nil
}
