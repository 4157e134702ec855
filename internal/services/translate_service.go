package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-travel-webapp/internal/config"
)

// TranslateService is a thin pass-through to a LibreTranslate instance.
// On any upstream failure the original text is returned unchanged, so page
// rendering never breaks on a translation outage.
type TranslateService struct {
	config *config.APIConfig
	client *http.Client
}

func NewTranslateService(apiConfig *config.APIConfig) *TranslateService {
	timeout := time.Duration(apiConfig.RequestTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TranslateService{
		config: apiConfig,
		client: &http.Client{Timeout: timeout},
	}
}

// Translate converts text between languages, falling back to the input.
func (s *TranslateService) Translate(text, sourceLang, targetLang string) string {
	if text == "" || sourceLang == targetLang {
		return text
	}

	body, err := json.Marshal(map[string]string{
		"q":      text,
		"source": sourceLang,
		"target": targetLang,
		"format": "text",
	})
	if err != nil {
		return text
	}

	resp, err := s.client.Post(s.config.TranslateBaseURL+"/translate", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("DEBUG: translation failed (%s->%s), returning original: %v\n", sourceLang, targetLang, err)
		return text
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return text
	}

	var payload struct {
		TranslatedText string `json:"translatedText"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.TranslatedText == "" {
		return text
	}
	return payload.TranslatedText
}
