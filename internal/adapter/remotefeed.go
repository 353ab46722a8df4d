package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"gemhub-inventory-api/internal/model"
)

// DefaultFetchTimeout bounds one remote feed download.
const DefaultFetchTimeout = 5 * time.Minute

var sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// ConvertSheetsURL rewrites a Google Sheets sharing URL into its CSV export
// form. Apps Script endpoints and non-Sheets URLs pass through unchanged.
func ConvertSheetsURL(url string) string {
	if url == "" {
		return ""
	}
	if strings.Contains(url, "script.google.com/macros") {
		return url
	}
	if strings.Contains(url, "docs.google.com/spreadsheets") {
		if m := sheetIDPattern.FindStringSubmatch(url); m != nil {
			return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", m[1])
		}
	}
	return url
}

// RemoteFeedSource fetches a feed over HTTP with a bounded timeout. Any
// non-2xx response is a hard failure.
type RemoteFeedSource struct {
	URL    string
	Client *http.Client
}

// NewRemoteFeedSource builds a source for the given URL, rewriting
// spreadsheet sharing URLs to their export form.
func NewRemoteFeedSource(url string, timeout time.Duration) *RemoteFeedSource {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &RemoteFeedSource{
		URL:    ConvertSheetsURL(url),
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *RemoteFeedSource) Kind() string { return model.SourceRemoteFeed }

func (s *RemoteFeedSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}
	return body, nil
}
