package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Geocoder converts an address into a coordinate. Implementations may be
// slow or occasionally failing; callers bound each call with a context
// deadline and treat failures per the Error taxonomy.
type Geocoder interface {
	Geocode(ctx context.Context, addr Address) (Coordinate, error)
}

// GoogleClient wraps the Google Maps Geocoding API.
type GoogleClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

const defaultGoogleEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// NewGoogleClient creates a geocoding client from the GOOGLE_MAPS_API_KEY
// env var.
func NewGoogleClient() (*GoogleClient, error) {
	key := os.Getenv("GOOGLE_MAPS_API_KEY")
	if key == "" {
		return nil, errors.New("GOOGLE_MAPS_API_KEY is not set")
	}
	return &GoogleClient{
		apiKey:   key,
		endpoint: defaultGoogleEndpoint,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}, nil
}

type googleResponse struct {
	Results []googleResult `json:"results"`
	Status  string         `json:"status"`
}

type googleResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// Geocode converts an address into a coordinate. Ambiguous responses
// (more than one result) are logged and the first result used — the API
// orders by relevance, and a best-effort coordinate beats failing the
// whole resolution. Zero results is a hard failure.
func (c *GoogleClient) Geocode(ctx context.Context, addr Address) (Coordinate, error) {
	u := fmt.Sprintf("%s?address=%s&key=%s",
		c.endpoint, url.QueryEscape(addr.Query()), c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Coordinate{}, &Error{Reason: ReasonUpstream, Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := ReasonUpstream
		if errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		return Coordinate{}, &Error{Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinate{}, &Error{
			Reason: ReasonUpstream,
			Err:    fmt.Errorf("geocoding API returned HTTP %d", resp.StatusCode),
		}
	}

	var geoResp googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&geoResp); err != nil {
		return Coordinate{}, &Error{Reason: ReasonUpstream, Err: fmt.Errorf("decoding response: %w", err)}
	}

	switch geoResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return Coordinate{}, &Error{Reason: ReasonZeroResults}
	default:
		return Coordinate{}, &Error{
			Reason: ReasonUpstream,
			Err:    fmt.Errorf("geocoding status %s", geoResp.Status),
		}
	}
	if len(geoResp.Results) == 0 {
		return Coordinate{}, &Error{Reason: ReasonZeroResults}
	}

	if len(geoResp.Results) > 1 {
		log.Printf("[geocoding] ambiguous address %q: %d results, using %q",
			addr.Query(), len(geoResp.Results), geoResp.Results[0].FormattedAddress)
	}

	loc := geoResp.Results[0].Geometry.Location
	return Coordinate{Lat: loc.Lat, Lng: loc.Lng}, nil
}
