// Package services implements the analysis and network operations the
// background pipeline runs: bulk catalog download, legality aggregation,
// and missing-card pricing.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/codyseavey/decklist-companion/internal/metrics"
)

const (
	scryfallBulkURL = "https://api.scryfall.com/bulk-data/oracle-cards"

	// requestTimeout bounds each HTTP call; there is no retry, the
	// pipeline falls back to a stale local file instead.
	requestTimeout = 5 * time.Second

	// Scryfall asks bulk consumers to stay under 10 requests/second.
	requestsPerSecond = 10
)

// BulkClient downloads the latest oracle-cards bulk file.
type BulkClient struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	bulkURL   string
}

// NewBulkClient builds a client identifying itself as program/version.
func NewBulkClient(program, version string) *BulkClient {
	return &BulkClient{
		client:    &http.Client{Timeout: requestTimeout},
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		userAgent: fmt.Sprintf("%s/%s", program, version),
		bulkURL:   scryfallBulkURL,
	}
}

// NewBulkClientWithURL overrides the metadata endpoint, for tests.
func NewBulkClientWithURL(program, version, bulkURL string) *BulkClient {
	c := NewBulkClient(program, version)
	c.bulkURL = bulkURL
	return c
}

// bulkDataResponse is the metadata record describing the latest bulk file.
type bulkDataResponse struct {
	Object      string `json:"object"`
	Type        string `json:"type"`
	UpdatedAt   string `json:"updated_at"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DownloadURI string `json:"download_uri"`
}

// DownloadLatest performs the two-step bulk fetch: read the metadata record
// for the download URI and size, then stream the file into dataDir under
// the URI's basename. The body read is capped at the advertised size.
// Returns the written filename.
func (c *BulkClient) DownloadLatest(ctx context.Context, dataDir string) (string, error) {
	meta, err := c.fetchMetadata(ctx)
	if err != nil {
		return "", err
	}

	filename := path.Base(meta.DownloadURI)
	if filename == "." || filename == "/" {
		return "", fmt.Errorf("bulk metadata carried no usable download URI")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.DownloadURI, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/file")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download bulk data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bulk download returned status %d", resp.StatusCode)
	}

	dest := filepath.Join(dataDir, filename)
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create catalog file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(resp.Body, meta.Size))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write catalog file: %w", err)
	}

	metrics.CatalogDownloadBytes.Add(float64(written))
	return filename, nil
}

func (c *BulkClient) fetchMetadata(ctx context.Context) (*bulkDataResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.bulkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create metadata request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bulk metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bulk metadata returned status %d", resp.StatusCode)
	}

	var meta bulkDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode bulk metadata: %w", err)
	}
	if meta.DownloadURI == "" {
		return nil, fmt.Errorf("bulk metadata carried no download URI")
	}
	return &meta, nil
}
