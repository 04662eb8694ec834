package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/redis/go-redis/v9"

	"github.com/Amedjranamen/IM/internal/config"
)

// IGeocodingService proxies forward and reverse geocoding to Nominatim.
type IGeocodingService interface {
	Geocode(ctx context.Context, query string) (json.RawMessage, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (*ReverseGeocodeResult, error)
}

// ReverseGeocodeResult is the simplified reverse-geocoding answer.
type ReverseGeocodeResult struct {
	DisplayName  string  `json:"address"`
	City         string  `json:"city"`
	Neighborhood string  `json:"neighborhood"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
}

// geocodingService implements IGeocodingService.
type geocodingService struct {
	cfg    *config.Config
	rdb    *redis.Client
	client *http.Client
}

// NewGeocodingService creates a new GeocodingService. rdb may be nil, in which
// case responses are not cached.
func NewGeocodingService(cfg *config.Config, rdb *redis.Client) IGeocodingService {
	return &geocodingService{
		cfg: cfg,
		rdb: rdb,
		client: &http.Client{
			Timeout: cfg.GeocodeTimeout,
		},
	}
}

// fetch performs a GET against the Nominatim endpoint with the identifying
// User-Agent Nominatim's usage policy requires.
func (s *geocodingService) fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s?%s", s.cfg.GeocodeBaseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.cfg.GeocodeUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Geocode forward-geocodes a free-text query and returns the upstream JSON
// result list untouched. Results are cached in Redis keyed on the raw query.
func (s *geocodingService) Geocode(ctx context.Context, query string) (json.RawMessage, error) {
	cacheKey := "geocode:" + query
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			return json.RawMessage(cached), nil
		}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "10")
	params.Set("countrycodes", s.cfg.GeocodeCountryCodes)
	params.Set("addressdetails", "1")
	params.Set("accept-language", s.cfg.GeocodeLanguage)

	body, err := s.fetch(ctx, "search", params)
	if err != nil {
		log.Printf("Geocoding query %q failed: %v", query, err)
		return nil, ErrGeocodingUnavailable
	}

	// Validate before caching so a malformed upstream body is never served.
	var results []map[string]interface{}
	if err := json.Unmarshal(body, &results); err != nil {
		log.Printf("Geocoding query %q returned malformed JSON: %v", query, err)
		return nil, ErrGeocodingUnavailable
	}

	if s.rdb != nil {
		if err := s.rdb.Set(ctx, cacheKey, body, s.cfg.GeocodeCacheTTL).Err(); err != nil {
			log.Printf("Failed to cache geocoding result for %q: %v", query, err)
		}
	}
	return json.RawMessage(body), nil
}

// nominatimReverse is the subset of the reverse endpoint's response we read.
type nominatimReverse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		State         string `json:"state"`
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
		Quarter       string `json:"quarter"`
	} `json:"address"`
}

// firstNonEmpty returns the first non-empty string, or "".
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ReverseGeocode resolves coordinates to an address, collapsing Nominatim's
// many locality fields into a single city and neighborhood.
func (s *geocodingService) ReverseGeocode(ctx context.Context, lat, lon float64) (*ReverseGeocodeResult, error) {
	cacheKey := fmt.Sprintf("revgeocode:%f:%f", lat, lon)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var result ReverseGeocodeResult
			if err := json.Unmarshal(cached, &result); err == nil {
				return &result, nil
			}
		}
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("format", "json")
	params.Set("accept-language", s.cfg.GeocodeLanguage)

	body, err := s.fetch(ctx, "reverse", params)
	if err != nil {
		log.Printf("Reverse geocoding (%f, %f) failed: %v", lat, lon, err)
		return nil, ErrGeocodingUnavailable
	}

	var raw nominatimReverse
	if err := json.Unmarshal(body, &raw); err != nil {
		log.Printf("Reverse geocoding (%f, %f) returned malformed JSON: %v", lat, lon, err)
		return nil, ErrGeocodingUnavailable
	}

	result := &ReverseGeocodeResult{
		DisplayName:  raw.DisplayName,
		City:         firstNonEmpty(raw.Address.City, raw.Address.Town, raw.Address.Village, raw.Address.State),
		Neighborhood: firstNonEmpty(raw.Address.Suburb, raw.Address.Neighbourhood, raw.Address.Quarter),
		Lat:          lat,
		Lon:          lon,
	}

	if s.rdb != nil {
		if encoded, err := json.Marshal(result); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, encoded, s.cfg.GeocodeCacheTTL).Err(); err != nil {
				log.Printf("Failed to cache reverse geocoding result for (%f, %f): %v", lat, lon, err)
			}
		}
	}
	return result, nil
}
