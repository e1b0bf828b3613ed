package translate

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// LibreDetector identifies languages through a LibreTranslate /detect endpoint.
type LibreDetector struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ LanguageDetector = (*LibreDetector)(nil)

// NewLibreDetector creates a detector for endpoint, e.g. "https://libretranslate.com/detect".
func NewLibreDetector(endpoint, apiKey string, client *http.Client) *LibreDetector {
	return &LibreDetector{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   newClient(client),
	}
}

func (d *LibreDetector) Name() string {
	return "libretranslate(" + d.endpoint + ")"
}

type detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Detect returns the most confident language code.
func (d *LibreDetector) Detect(ctx context.Context, text string) (string, error) {
	form := url.Values{}
	form.Set("q", text)
	if d.apiKey != "" {
		form.Set("api_key", d.apiKey)
	}

	req, err := http.NewRequest(http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var detections []detection
	if err := doJSON(ctx, d.client, req, &detections); err != nil {
		return "", err
	}

	best := detection{Confidence: -1}
	for _, det := range detections {
		if det.Language != "" && det.Confidence > best.Confidence {
			best = det
		}
	}
	if best.Language == "" {
		return "", ErrNoResult
	}
	return best.Language, nil
}
