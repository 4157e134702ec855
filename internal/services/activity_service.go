package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-travel-webapp/internal/config"
)

// Activity is the reshaped catalog entry served to clients.
type Activity struct {
	ProductCode string  `json:"product_code"`
	Title       string  `json:"title"`
	Destination string  `json:"destination"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Rating      float64 `json:"rating,omitempty"`
}

// ActivityService proxies the Viator activity catalog with static fallbacks
// on upstream error. No cache: prices and availability go stale quickly.
type ActivityService struct {
	config *config.APIConfig
	client *http.Client
}

func NewActivityService(apiConfig *config.APIConfig) *ActivityService {
	timeout := time.Duration(apiConfig.RequestTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ActivityService{
		config: apiConfig,
		client: &http.Client{Timeout: timeout},
	}
}

// Search returns activities for a destination. Upstream failures degrade to
// the static fallback catalog.
func (s *ActivityService) Search(destination string) []Activity {
	activities, err := s.fetchFromViator(destination)
	if err != nil {
		fmt.Printf("DEBUG: Viator lookup failed for %q, serving fallback: %v\n", destination, err)
		return fallbackActivities
	}
	return activities
}

func (s *ActivityService) fetchFromViator(destination string) ([]Activity, error) {
	if s.config.ViatorAPIKey == "" {
		return nil, fmt.Errorf("viator API key not configured")
	}

	body, err := json.Marshal(map[string]interface{}{
		"searchTerm": destination,
		"searchTypes": []map[string]interface{}{
			{"searchType": "PRODUCTS", "pagination": map[string]int{"start": 1, "count": 20}},
		},
		"currency": "EUR",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, s.config.ViatorBaseURL+"/search/freetext", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json;version=2.0")
	req.Header.Set("exp-api-key", s.config.ViatorAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("viator returned status %d", resp.StatusCode)
	}

	var payload struct {
		Products struct {
			Results []struct {
				ProductCode string `json:"productCode"`
				Title       string `json:"title"`
				Destination string `json:"destinationName"`
				Pricing     struct {
					Summary struct {
						FromPrice float64 `json:"fromPrice"`
					} `json:"summary"`
					Currency string `json:"currency"`
				} `json:"pricing"`
				Reviews struct {
					CombinedAverageRating float64 `json:"combinedAverageRating"`
				} `json:"reviews"`
			} `json:"results"`
		} `json:"products"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode viator response: %w", err)
	}

	activities := make([]Activity, 0, len(payload.Products.Results))
	for _, product := range payload.Products.Results {
		activities = append(activities, Activity{
			ProductCode: product.ProductCode,
			Title:       product.Title,
			Destination: product.Destination,
			Price:       product.Pricing.Summary.FromPrice,
			Currency:    product.Pricing.Currency,
			Rating:      product.Reviews.CombinedAverageRating,
		})
	}
	return activities, nil
}

var fallbackActivities = []Activity{
	{ProductCode: "FALLBACK-001", Title: "Old Town Walking Tour", Destination: "Prague", Price: 29, Currency: "EUR", Rating: 4.7},
	{ProductCode: "FALLBACK-002", Title: "Seine River Evening Cruise", Destination: "Paris", Price: 45, Currency: "EUR", Rating: 4.5},
	{ProductCode: "FALLBACK-003", Title: "Colosseum Skip-the-Line Tour", Destination: "Rome", Price: 54, Currency: "EUR", Rating: 4.8},
	{ProductCode: "FALLBACK-004", Title: "Sagrada Familia Guided Visit", Destination: "Barcelona", Price: 39, Currency: "EUR", Rating: 4.6},
	{ProductCode: "FALLBACK-005", Title: "Bosphorus Sunset Sail", Destination: "Istanbul", Price: 35, Currency: "EUR", Rating: 4.4},
}
