package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/platform/httpclient"
	"pickup-trip-service/internal/platform/logger"
	"pickup-trip-service/internal/platform/obs"

	"go.uber.org/zap"
)

// CSVSource loads the feed from a published spreadsheet CSV export.
type CSVSource struct {
	url     string
	cols    Columns
	session *http.Client
}

type CSVOption func(*CSVSource)

// WithCSVHTTPClient replaces the default logging client.
func WithCSVHTTPClient(c *http.Client) CSVOption {
	return func(s *CSVSource) { s.session = c }
}

func NewCSVSource(url string, cols Columns, timeout time.Duration, opts ...CSVOption) (*CSVSource, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("csv source url is empty")
	}
	if err := cols.validate(); err != nil {
		return nil, err
	}

	s := &CSVSource{
		url:     url,
		cols:    cols,
		session: httpclient.NewClient(timeout),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load fetches the feed and builds a fresh coordinate store. The first row is
// a header and is discarded. Any fetch or parse failure is reported as a
// source_unavailable PlanError.
func (s *CSVSource) Load(ctx context.Context) (_ []string, _ *domain.CoordinateStore, err error) {
	defer obs.Time(ctx, "source.csv.Load")(&err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, nil, unavailable(fmt.Errorf("build request: %w", err))
	}

	resp, err := s.session.Do(req)
	if err != nil {
		return nil, nil, unavailable(fmt.Errorf("fetch sheet: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, nil, unavailable(fmt.Errorf("fetch sheet: unexpected status %d", resp.StatusCode))
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []string{}, domain.NewCoordinateStore(), nil
		}
		return nil, nil, unavailable(fmt.Errorf("read header: %w", err))
	}

	addresses, store, err := decodeRows(r, s.cols)
	if err != nil {
		return nil, nil, unavailable(err)
	}

	logger.Get().Info("Loaded coordinate feed",
		zap.String("source", "csv"),
		zap.Int("rows", len(addresses)),
		zap.Int("addresses", store.Len()),
	)

	return addresses, store, nil
}
