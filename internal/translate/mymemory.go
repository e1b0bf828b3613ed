package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultMyMemoryURL is the public MyMemory translation endpoint.
const DefaultMyMemoryURL = "https://api.mymemory.translated.net/get"

// PairBackend translates through a MyMemory-compatible API keyed by a
// "source|target" language pair. Each instance pairs one endpoint with one
// optional credential (the contact e-mail that raises the daily quota).
type PairBackend struct {
	endpoint string
	email    string
	client   *http.Client
}

var _ Translator = (*PairBackend)(nil)

// NewPairBackend creates a PairBackend. A nil client uses a client with DefaultTimeout.
func NewPairBackend(endpoint, email string, client *http.Client) *PairBackend {
	if endpoint == "" {
		endpoint = DefaultMyMemoryURL
	}
	return &PairBackend{
		endpoint: endpoint,
		email:    email,
		client:   newClient(client),
	}
}

// NewPairBackends returns one backend per endpoint and credential combination,
// in order. With no credentials each endpoint is used anonymously.
func NewPairBackends(endpoints, emails []string, client *http.Client) []Translator {
	if len(emails) == 0 {
		emails = []string{""}
	}
	var backends []Translator
	for _, endpoint := range endpoints {
		for _, email := range emails {
			backends = append(backends, NewPairBackend(endpoint, email, client))
		}
	}
	return backends
}

func (b *PairBackend) Name() string {
	if b.email == "" {
		return "mymemory(" + b.endpoint + ")"
	}
	return "mymemory(" + b.endpoint + "," + b.email + ")"
}

// flexInt decodes numbers that some responses send as strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  flexInt         `json:"responseStatus"`
	ResponseDetails json.RawMessage `json:"responseDetails"`
	QuotaFinished   bool            `json:"quotaFinished"`
}

// Translate requires both source and target.
func (b *PairBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" || target == "" {
		return "", fmt.Errorf("language pair %q|%q is incomplete", source, target)
	}

	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", source+"|"+target)
	if b.email != "" {
		q.Set("de", b.email)
	}

	req, err := http.NewRequest(http.MethodGet, b.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	var resp myMemoryResponse
	if err := doJSON(ctx, b.client, req, &resp); err != nil {
		return "", err
	}

	if resp.QuotaFinished {
		return "", ErrQuotaExceeded
	}
	if resp.ResponseStatus != http.StatusOK {
		return "", &StatusError{Code: int(resp.ResponseStatus), Body: string(resp.ResponseDetails)}
	}
	if resp.ResponseData.TranslatedText == "" {
		return "", ErrNoResult
	}
	return resp.ResponseData.TranslatedText, nil
}
