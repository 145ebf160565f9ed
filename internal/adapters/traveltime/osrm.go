package traveltime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pickup-trip-service/internal/domain"
	"pickup-trip-service/internal/platform/httpclient"
	"pickup-trip-service/internal/platform/logger"
	"pickup-trip-service/internal/platform/obs"
	"pickup-trip-service/internal/ports"

	"go.uber.org/zap"
)

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration *float64 `json:"duration"`
	} `json:"routes"`
}

// OSRMOracle implements TravelTimeOracle against an OSRM /route endpoint.
//
// Any failure (transport, status, decoding, no route) is reported as
// ports.Unreachable so that routing problems degrade planning instead of
// aborting it. The oracle is safe for concurrent use.
type OSRMOracle struct {
	session     *http.Client
	baseURL     string
	profile     string
	maxAttempts int
}

// OSRMOption configures an OSRMOracle.
type OSRMOption func(*OSRMOracle)

// WithHTTPClient replaces the default logging client.
func WithHTTPClient(c *http.Client) OSRMOption {
	return func(o *OSRMOracle) { o.session = c }
}

// WithProfile sets the OSRM routing profile (driving, walking, ...).
func WithProfile(profile string) OSRMOption {
	return func(o *OSRMOracle) { o.profile = profile }
}

// WithMaxAttempts enables retries of transient failures. 1 disables retrying.
func WithMaxAttempts(n int) OSRMOption {
	return func(o *OSRMOracle) { o.maxAttempts = n }
}

func NewOSRMOracle(baseURL string, timeout time.Duration, opts ...OSRMOption) (*OSRMOracle, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("OSRM base url is empty")
	}

	o := &OSRMOracle{
		session:     httpclient.NewClient(timeout),
		baseURL:     baseURL,
		profile:     "driving",
		maxAttempts: 1,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.maxAttempts < 1 {
		o.maxAttempts = 1
	}

	return o, nil
}

// TravelMinutes returns the driving time in minutes, or ports.Unreachable.
func (o *OSRMOracle) TravelMinutes(ctx context.Context, from, to *domain.Coordinates) float64 {
	if from == nil || to == nil {
		return ports.Unreachable
	}

	minutes, err := o.fetchRoute(ctx, *from, *to)
	if err != nil {
		logger.Get().Debug("travel time unavailable",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.Float64s("from", from.LonLat()),
			zap.Float64s("to", to.LonLat()),
			zap.Error(err),
		)
		return ports.Unreachable
	}

	return minutes
}

// routeURL builds {base}/route/v1/{profile}/{lon1},{lat1};{lon2},{lat2}?overview=false.
func (o *OSRMOracle) routeURL(from, to domain.Coordinates) string {
	return fmt.Sprintf(
		"%s/route/v1/%s/%s,%s;%s,%s?overview=false",
		o.baseURL, o.profile,
		formatDegrees(from.Lon), formatDegrees(from.Lat),
		formatDegrees(to.Lon), formatDegrees(to.Lat),
	)
}

func (o *OSRMOracle) fetchRoute(ctx context.Context, from, to domain.Coordinates) (_ float64, err error) {
	defer obs.Time(ctx, "osrm.route")(&err)

	endpoint := o.routeURL(from, to)

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodGet, endpoint)
	})
	if err != nil {
		return 0, fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()

	var decoded routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode route response: %w", err)
	}

	if len(decoded.Routes) == 0 {
		return 0, fmt.Errorf("no route returned (code=%q)", decoded.Code)
	}

	seconds := decoded.Routes[0].Duration
	if seconds == nil {
		return 0, fmt.Errorf("route has no duration (code=%q)", decoded.Code)
	}

	return *seconds / 60, nil
}
