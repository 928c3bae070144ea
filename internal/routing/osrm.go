package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"drivemate/internal/domain"
)

const (
	DefaultOSRMBaseURL = "http://router.project-osrm.org"
	defaultTimeout     = 5 * time.Second
)

// osrmResponse is the subset of the OSRM route service response we read.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // metres
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

// OSRMProvider queries an OSRM route service and falls back to a haversine
// estimate whenever the service cannot answer.
type OSRMProvider struct {
	baseURL string
	client  *http.Client
	log     logrus.FieldLogger
}

// NewOSRMProvider creates an OSRMProvider. The HTTP transport is wrapped so
// calls show up as external segments when a New Relic transaction is on ctx.
func NewOSRMProvider(baseURL string, timeout time.Duration, log logrus.FieldLogger) *OSRMProvider {
	if baseURL == "" {
		baseURL = DefaultOSRMBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &OSRMProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: newrelic.NewRoundTripper(http.DefaultTransport),
		},
		log: log,
	}
}

// Route implements Provider.
func (p *OSRMProvider) Route(ctx context.Context, from, to *domain.Coordinate) (Route, error) {
	if err := checkPoints(from, to); err != nil {
		return Route{}, err
	}

	route, err := p.fetch(ctx, *from, *to)
	if err != nil {
		p.log.WithError(err).Warn("osrm route failed, using haversine estimate")
		return haversineRoute(*from, *to), nil
	}
	return route, nil
}

func (p *OSRMProvider) fetch(ctx context.Context, from, to domain.Coordinate) (Route, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false&alternatives=false&steps=false",
		p.baseURL, from.Lng, from.Lat, to.Lng, to.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Route{}, fmt.Errorf("build osrm request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Route{}, fmt.Errorf("osrm status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Route{}, fmt.Errorf("decode osrm response: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return Route{}, errors.New("osrm returned no route: " + body.Code)
	}

	return Route{
		DistanceKm:  body.Routes[0].Distance / 1000,
		DurationMin: body.Routes[0].Duration / 60,
		Source:      SourceOSRM,
	}, nil
}
