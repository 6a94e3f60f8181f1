package mcws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"untethered/internal/logging"
	"untethered/internal/services"
)

// ErrNoMatchingFile is returned when a chart search yields zero or several files.
var ErrNoMatchingFile = errors.New("no matching file")

// SearchResult is one row of a Files/Search JSON answer.
type SearchResult struct {
	Key string
}

// ChartQuery builds the library query selecting a chart's test clip variant.
func ChartQuery(chart, episode string) string {
	return fmt.Sprintf("[Name]=[%s] [Media Type]=Video [Media Sub Type]=Test Clip [Episode]=%s", chart, episode)
}

// Search runs a library query and returns the matching file keys.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("Action", "json")
	params.Set("Fields", "Key")
	params.Set("Query", query)
	target := c.baseURL + "/Files/Search?" + encodeParams(params)
	logging.WithContext(ctx, c.logger).Debug("mcws search", logging.String("query", query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.creds != nil {
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mcws search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("mcws search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rows []map[string]any
	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	decoder.UseNumber()
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		key, ok := row["Key"]
		if !ok || key == nil {
			continue
		}
		results = append(results, SearchResult{Key: strings.TrimSpace(fmt.Sprint(key))})
	}
	return results, nil
}

// FindFileKey resolves a chart and episode variant to exactly one file key.
func (c *Client) FindFileKey(ctx context.Context, chart, episode string) (string, error) {
	results, err := c.Search(ctx, ChartQuery(chart, episode))
	if err != nil {
		switch {
		case errors.Is(err, ErrAuthenticationFailed):
			return "", err
		case ctx.Err() != nil, errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return "", services.Wrap(services.ErrTimeout, "mcws", "search", fmt.Sprintf("search for %s (%s) interrupted", chart, episode), err)
		default:
			return "", services.Wrap(services.ErrExternalTool, "mcws", "search", fmt.Sprintf("search for %s (%s) failed", chart, episode), err)
		}
	}
	if len(results) != 1 {
		return "", services.Wrap(services.ErrNotFound, "mcws", "search", fmt.Sprintf("%d matches for %s (%s)", len(results), chart, episode), ErrNoMatchingFile)
	}
	logging.WithContext(ctx, c.logger).Debug("mcws file located", logging.String("chart", chart), logging.String("episode", episode), logging.String("file_key", results[0].Key))
	return results[0].Key, nil
}
