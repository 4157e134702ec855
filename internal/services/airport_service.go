package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go-travel-webapp/internal/config"
)

// Airport is the reshaped representation served to clients.
type Airport struct {
	IATACode string  `json:"iata_code"`
	Name     string  `json:"name"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Lat      float64 `json:"lat,omitempty"`
	Lon      float64 `json:"lon,omitempty"`
}

// AirportService proxies Duffel place suggestions, reshaping the upstream
// response and serving static fallback data when the upstream fails. Results
// are cached in-process per query; stale entries are acceptable for airport
// metadata, which changes on the order of months.
type AirportService struct {
	config *config.APIConfig
	client *http.Client

	mu    sync.RWMutex
	cache map[string]cachedAirports
}

type cachedAirports struct {
	airports []Airport
	fetched  time.Time
}

const airportCacheTTL = 6 * time.Hour

func NewAirportService(apiConfig *config.APIConfig) *AirportService {
	timeout := time.Duration(apiConfig.RequestTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &AirportService{
		config: apiConfig,
		client: &http.Client{Timeout: timeout},
		cache:  make(map[string]cachedAirports),
	}
}

// Search returns airports matching the query. Upstream errors degrade to the
// static fallback set, never to a client-visible failure.
func (s *AirportService) Search(query string) []Airport {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return fallbackAirports
	}

	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if ok && time.Since(entry.fetched) < airportCacheTTL {
		return entry.airports
	}

	airports, err := s.fetchFromDuffel(key)
	if err != nil {
		fmt.Printf("DEBUG: Duffel lookup failed for %q, serving fallback: %v\n", key, err)
		return filterFallback(key)
	}

	s.mu.Lock()
	s.cache[key] = cachedAirports{airports: airports, fetched: time.Now()}
	s.mu.Unlock()

	return airports
}

func (s *AirportService) fetchFromDuffel(query string) ([]Airport, error) {
	if s.config.DuffelToken == "" {
		return nil, fmt.Errorf("duffel token not configured")
	}

	reqURL := fmt.Sprintf("%s/places/suggestions?query=%s", s.config.DuffelBaseURL, url.QueryEscape(query))
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.config.DuffelToken)
	req.Header.Set("Duffel-Version", "v2")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duffel returned status %d", resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			IATACode string  `json:"iata_code"`
			Name     string  `json:"name"`
			CityName string  `json:"city_name"`
			Country  string  `json:"iata_country_code"`
			Lat      float64 `json:"latitude"`
			Lon      float64 `json:"longitude"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode duffel response: %w", err)
	}

	airports := make([]Airport, 0, len(payload.Data))
	for _, place := range payload.Data {
		if place.IATACode == "" {
			continue
		}
		airports = append(airports, Airport{
			IATACode: place.IATACode,
			Name:     place.Name,
			City:     place.CityName,
			Country:  place.Country,
			Lat:      place.Lat,
			Lon:      place.Lon,
		})
	}
	return airports, nil
}

func filterFallback(query string) []Airport {
	var matches []Airport
	for _, airport := range fallbackAirports {
		if strings.Contains(strings.ToLower(airport.Name), query) ||
			strings.Contains(strings.ToLower(airport.City), query) ||
			strings.EqualFold(airport.IATACode, query) {
			matches = append(matches, airport)
		}
	}
	if len(matches) == 0 {
		return fallbackAirports
	}
	return matches
}

// fallbackAirports keeps search usable when Duffel is unreachable.
var fallbackAirports = []Airport{
	{IATACode: "LHR", Name: "Heathrow Airport", City: "London", Country: "GB"},
	{IATACode: "CDG", Name: "Charles de Gaulle Airport", City: "Paris", Country: "FR"},
	{IATACode: "FRA", Name: "Frankfurt Airport", City: "Frankfurt", Country: "DE"},
	{IATACode: "AMS", Name: "Amsterdam Schiphol", City: "Amsterdam", Country: "NL"},
	{IATACode: "JFK", Name: "John F. Kennedy International", City: "New York", Country: "US"},
	{IATACode: "LAX", Name: "Los Angeles International", City: "Los Angeles", Country: "US"},
	{IATACode: "DXB", Name: "Dubai International", City: "Dubai", Country: "AE"},
	{IATACode: "SIN", Name: "Singapore Changi", City: "Singapore", Country: "SG"},
	{IATACode: "HND", Name: "Tokyo Haneda", City: "Tokyo", Country: "JP"},
	{IATACode: "SYD", Name: "Sydney Kingsford Smith", City: "Sydney", Country: "AU"},
}
