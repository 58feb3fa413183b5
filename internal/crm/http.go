package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
)

// DefaultHTTPTimeout bounds a single CRM request.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPConfig configures an HTTPStore.
type HTTPConfig struct {
	BaseURL string // e.g. https://www.zohoapis.com/crm/v2
	Token   string // OAuth access token
	Timeout time.Duration
	Client  *http.Client // optional; Timeout is ignored when set
	Logger  *slog.Logger
}

// HTTPStore is a core.Store backed by a Zoho CRM v2 style REST API:
//
//	GET  {base}/Contacts/search?email=...
//	POST {base}/{Module}   {"data": [fields]}
//	PUT  {base}/{Module}   {"data": [fields with id]}
type HTTPStore struct {
	base   *url.URL
	token  string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPStore validates cfg and returns a store.
func NewHTTPStore(cfg HTTPConfig) (*HTTPStore, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("crm: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("crm: invalid base URL: %w", err)
	}
	if cfg.Token == "" {
		return nil, errors.New("crm: access token is required")
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPStore{base: base, token: cfg.Token, client: client, logger: logger}, nil
}

// searchResponse is the body of a search. Account_Name is a lookup and may
// arrive as null, an id string or an object with an id.
type searchResponse struct {
	Data []struct {
		ID          string          `json:"id"`
		AccountName json.RawMessage `json:"Account_Name"`
	} `json:"data"`
}

type writeResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
	} `json:"data"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *HTTPStore) SearchByEmail(ctx context.Context, email string) ([]core.ContactMatch, error) {
	q := url.Values{"email": {email}}
	resp, err := s.do(ctx, http.MethodGet, string(core.EntityContact)+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return []core.ContactMatch{}, nil
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("crm: decode search response: %w", err)
	}

	matches := make([]core.ContactMatch, 0, len(body.Data))
	for _, d := range body.Data {
		matches = append(matches, core.ContactMatch{ID: d.ID, AccountID: lookupID(d.AccountName)})
	}
	return matches, nil
}

func (s *HTTPStore) Insert(ctx context.Context, entity core.Entity, fields core.Fields) (string, error) {
	return s.write(ctx, http.MethodPost, entity, fields)
}

func (s *HTTPStore) Update(ctx context.Context, entity core.Entity, fields core.Fields) error {
	if _, err := recordID(fields); err != nil {
		return err
	}
	_, err := s.write(ctx, http.MethodPut, entity, fields)
	return err
}

// write sends one record and returns the id the CRM reports for it.
func (s *HTTPStore) write(ctx context.Context, method string, entity core.Entity, fields core.Fields) (string, error) {
	payload, err := json.Marshal(map[string]any{"data": []core.Fields{fields}})
	if err != nil {
		return "", fmt.Errorf("crm: encode %s: %w", entity, err)
	}

	resp, err := s.do(ctx, method, string(entity), payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body writeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("crm: decode %s response: %w", entity, err)
	}
	if len(body.Data) == 0 {
		return "", core.ErrNoIDReturned
	}

	rec := body.Data[0]
	if !strings.EqualFold(rec.Status, "success") {
		return "", &APIError{Code: rec.Code, Message: rec.Message}
	}
	return rec.Details.ID, nil
}

// do sends a request and returns the response for any 2xx status. Other
// statuses are turned into an *APIError and the body is closed.
func (s *HTTPStore) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.base.String()+"/"+path, r)
	if err != nil {
		return nil, fmt.Errorf("crm: build request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+s.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crm: %s %s: %w", method, path, err)
	}
	s.logger.Debug("crm request",
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	// Request-level errors are a top-level object; record-level rejections
	// come back in data[0].
	var e errorResponse
	if json.Unmarshal(raw, &e) == nil && e.Code != "" {
		apiErr.Code = e.Code
		apiErr.Message = e.Message
		return nil, apiErr
	}
	var w writeResponse
	if json.Unmarshal(raw, &w) == nil && len(w.Data) > 0 && w.Data[0].Code != "" {
		apiErr.Code = w.Data[0].Code
		apiErr.Message = w.Data[0].Message
	}
	return nil, apiErr
}

// lookupID reads the id out of a lookup field value.
func lookupID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if json.Unmarshal(raw, &id) == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.ID
	}
	return ""
}

var _ core.Store = (*HTTPStore)(nil)
