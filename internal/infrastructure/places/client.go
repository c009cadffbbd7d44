// Package places is the client for the external place directory's v1
// HTTP API. All calls go through a shared rate limiter and the
// resilience executor; the directory's quota errors are the most common
// failure in production.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/anshin-navi/discovery/internal/core/domain"
	"github.com/anshin-navi/discovery/internal/infrastructure/resilience"
)

const (
	searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.location,places.websiteUri,places.nationalPhoneNumber,places.editorialSummary,places.googleMapsUri,places.photos"
	detailFieldMask = "id,displayName,formattedAddress,location,nationalPhoneNumber,websiteUri,regularOpeningHours,priceLevel,rating,userRatingCount,paymentOptions,parkingOptions,accessibilityOptions,menuForChildren,servesVegetarianFood,allowsDogs,googleMapsUri,photos"
)

type Client struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

func New(baseURL, apiKey string, requestsPerSecond float64, executor *resilience.Executor) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		language:   "ja",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		executor:   executor,
	}
}

// The directory rejects bias circles wider than 50km.
const maxBiasRadiusMeters = 50000

type searchRequest struct {
	TextQuery      string        `json:"textQuery"`
	LanguageCode   string        `json:"languageCode"`
	MaxResultCount int           `json:"maxResultCount"`
	LocationBias   *locationBias `json:"locationBias,omitempty"`
}

type locationBias struct {
	Circle biasCircle `json:"circle"`
}

type biasCircle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

// SearchText runs a free-text search and maps the hits into domain
// results. A non-nil bias narrows the search to a circle around the
// caller's point of interest.
func (c *Client) SearchText(ctx context.Context, query string, maxResults int, bias *domain.GeoBias) ([]domain.PlaceResult, error) {
	if maxResults <= 0 || maxResults > 20 {
		maxResults = 20
	}
	payload := searchRequest{
		TextQuery:      query,
		LanguageCode:   c.language,
		MaxResultCount: maxResults,
		LocationBias:   toLocationBias(bias),
	}

	var response struct {
		Places []apiPlace `json:"places"`
	}
	err := c.executor.Execute(ctx, "places_search", func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1/places:searchText", searchFieldMask, payload, &response)
	}, classifyPlacesError)
	if err != nil {
		return nil, wrapPlacesError("search places", err)
	}

	out := make([]domain.PlaceResult, 0, len(response.Places))
	for _, p := range response.Places {
		out = append(out, p.toResult())
	}
	return out, nil
}

func toLocationBias(bias *domain.GeoBias) *locationBias {
	if bias == nil {
		return nil
	}
	radius := bias.RadiusMeters
	if radius <= 0 {
		radius = 5000
	}
	if radius > maxBiasRadiusMeters {
		radius = maxBiasRadiusMeters
	}
	return &locationBias{Circle: biasCircle{
		Center: latLng{Latitude: bias.Lat, Longitude: bias.Lng},
		Radius: radius,
	}}
}

// Details fetches the full record for one place.
func (c *Client) Details(ctx context.Context, placeID string) (*domain.PlaceDetails, error) {
	if placeID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch place details", fmt.Errorf("empty place id"))
	}

	var response apiPlace
	err := c.executor.Execute(ctx, "places_details", func(ctx context.Context) error {
		return c.getJSON(ctx, "/v1/places/"+placeID, detailFieldMask, &response)
	}, classifyPlacesError)
	if err != nil {
		return nil, wrapPlacesError("fetch place details", err)
	}

	details := response.toDetails()
	return &details, nil
}

func (c *Client) postJSON(ctx context.Context, path, fieldMask string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, fieldMask, out)
}

func (c *Client) getJSON(ctx context.Context, path, fieldMask string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, fieldMask, out)
}

func (c *Client) do(req *http.Request, fieldMask string, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("directory request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.WrapError(domain.ErrMalformedResponse, "decode directory response", err)
	}
	return nil
}
