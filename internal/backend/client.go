package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"talkdoc/internal/config"
	"talkdoc/internal/model"
)

// Client defines the interface for talking to the Talk-to-Document backend.
type Client interface {
	ListDocuments(ctx context.Context) ([]model.DocumentEntry, error)
	Upload(ctx context.Context, filename string, file io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, id string) error
	Ask(ctx context.Context, req *AskRequest) (*AskResponse, error)
	Health(ctx context.Context) error
}

// AskRequest is the body of a chat question. DocID scopes the question to a
// single document when set; TopK bounds the number of context chunks the
// backend retrieves.
type AskRequest struct {
	Question string `json:"question"`
	DocID    string `json:"doc_id,omitempty"`
	TopK     int    `json:"top_k,omitempty"`
}

type AskResponse struct {
	Answer string   `json:"answer"`
	Images []string `json:"images"`
}

type UploadResult struct {
	Status    string `json:"status"`
	DocID     string `json:"doc_id"`
	Title     string `json:"title"`
	NumChunks int    `json:"num_chunks"`
}

// StatusError is returned when the backend answers with a non-success
// status. Detail carries the backend's human-readable message when present.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Detail)
	}
	return fmt.Sprintf("backend returned status %d", e.Code)
}

type httpClient struct {
	client  *http.Client
	url     string
	variant string
}

// NewClient returns a Client for the API at baseURL. variant selects the
// wire contract (config.VariantDocuments or config.VariantFiles). A zero
// timeout leaves the transport's default in place.
func NewClient(baseURL, variant string, timeout time.Duration) Client {
	return &httpClient{
		client:  &http.Client{Timeout: timeout},
		url:     strings.TrimRight(baseURL, "/"),
		variant: variant,
	}
}

func (c *httpClient) ListDocuments(ctx context.Context) ([]model.DocumentEntry, error) {
	if c.variant == config.VariantFiles {
		return c.listFiles(ctx)
	}

	body, err := c.get(ctx, "/documents")
	if err != nil {
		return nil, err
	}

	var listing struct {
		Documents []struct {
			DocID string `json:"doc_id"`
			Title string `json:"title"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("could not decode document listing: %w", err)
	}

	docs := make([]model.DocumentEntry, 0, len(listing.Documents))
	for _, d := range listing.Documents {
		docs = append(docs, model.DocumentEntry{ID: d.DocID, Name: d.Title})
	}
	return docs, nil
}

// listFiles serves the legacy listing shape: bare filenames, which double as
// both id and display name.
func (c *httpClient) listFiles(ctx context.Context) ([]model.DocumentEntry, error) {
	body, err := c.get(ctx, "/files")
	if err != nil {
		return nil, err
	}

	var listing struct {
		Files []string `json:"files"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("could not decode file listing: %w", err)
	}

	docs := make([]model.DocumentEntry, 0, len(listing.Files))
	for _, name := range listing.Files {
		docs = append(docs, model.DocumentEntry{ID: name, Name: name})
	}
	return docs, nil
}

func (c *httpClient) Upload(ctx context.Context, filename string, file io.Reader) (*UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("could not create multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("could not read file contents: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Detail: extractDetail(body)}
	}

	var result UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not decode upload response: %w", err)
	}
	if result.Status != "success" {
		return nil, &StatusError{Code: resp.StatusCode, Detail: extractDetail(body)}
	}
	return &result, nil
}

func (c *httpClient) Delete(ctx context.Context, id string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url+"/delete/"+id, nil)
	if err != nil {
		return fmt.Errorf("could not create http request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Code: resp.StatusCode, Detail: extractDetail(body)}
	}
	return nil
}

func (c *httpClient) Ask(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Detail: extractDetail(body)}
	}

	// The legacy variant answers with the raw text of the answer instead of
	// a JSON object.
	if c.variant == config.VariantFiles {
		return &AskResponse{Answer: strings.TrimSpace(string(body))}, nil
	}

	var answer AskResponse
	if err := json.Unmarshal(body, &answer); err != nil {
		return nil, fmt.Errorf("could not decode chat response: %s", string(body))
	}
	return &answer, nil
}

func (c *httpClient) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/health", nil)
	if err != nil {
		return fmt.Errorf("could not create http request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

func (c *httpClient) get(ctx context.Context, path string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Detail: extractDetail(body)}
	}
	return body, nil
}

// extractDetail pulls the backend's `detail` message out of an error body.
// Returns "" when the body is not JSON or carries no detail.
func extractDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Detail
}
