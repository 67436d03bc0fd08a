// ABOUTME: HTTP client for the document chat service
// ABOUTME: Session lifecycle, streaming message submission, document and model listing

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/2389/scribe/internal/sse"
)

// Document describes an uploaded document known to the service.
type Document struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	UploadDate string `json:"upload_date"`
}

// SendMessageRequest is the JSON body sent to POST /api/chat/message.
// DocumentIDs restricts retrieval to an explicit document set; when nil the
// field is omitted from the wire entirely, which the server reads as "all
// documents". An explicitly empty list is never produced.
type SendMessageRequest struct {
	Message     string   `json:"message"`
	SessionID   string   `json:"session_id"`
	TopK        int      `json:"top_k"`
	Model       string   `json:"model,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

// Client talks to the chat service's HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a client for the service at baseURL. The timeout bounds every
// request including the full duration of a streamed response; zero means no
// limit.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "api"),
	}
}

// CreateSession asks the server for a fresh chat session and returns its id.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/session/new", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.errorFromResponse(resp, "failed to create session")
	}

	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("parsing session response: %w", err)
	}
	if body.SessionID == "" {
		return "", fmt.Errorf("server returned an empty session id")
	}

	return body.SessionID, nil
}

// DeleteSession removes a session server-side. A session that is already
// gone counts as success: deletes are idempotent.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	endpoint := c.baseURL + "/api/chat/session/" + url.PathEscape(sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return c.errorFromResponse(resp, "failed to delete session")
	}

	return nil
}

// SendMessage submits a chat message and opens the streamed response. The
// caller owns the returned stream and must Close it; a new stream is
// required for every message.
func (c *Client) SendMessage(ctx context.Context, msg SendMessageRequest) (*MessageStream, error) {
	bodyBytes, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/message", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.errorFromResponse(resp, "failed to send message")
	}

	return &MessageStream{
		body: resp.Body,
		dec:  sse.NewDecoder(resp.Body),
	}, nil
}

// ListDocuments fetches the documents currently known to the service.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/documents", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching documents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromResponse(resp, "failed to fetch documents")
	}

	var body struct {
		Documents []Document `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing documents response: %w", err)
	}

	return body.Documents, nil
}

// DeleteDocument removes a document and its indexed chunks from the service.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	endpoint := c.baseURL + "/api/documents/" + url.PathEscape(documentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.errorFromResponse(resp, "failed to delete document")
	}

	return nil
}

// ListModels fetches the model identifiers the service can answer with.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/models", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromResponse(resp, "failed to fetch models")
	}

	var body struct {
		Models []string `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing models response: %w", err)
	}

	return body.Models, nil
}

// errorFromResponse builds an error from a non-200 response, preferring the
// server's JSON detail message when one is present.
func (c *Client) errorFromResponse(resp *http.Response, fallback string) error {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Detail != "" {
		return fmt.Errorf("%s", body.Detail)
	}
	return fmt.Errorf("%s: server returned status %d", fallback, resp.StatusCode)
}

// MessageStream is the streamed response to one submitted message. Frames
// arrive in server order via Next; the stream is single-use.
type MessageStream struct {
	body io.ReadCloser
	dec  *sse.Decoder
}

// Next returns the next frame. io.EOF signals a completed stream; any other
// error is a transport failure.
func (s *MessageStream) Next() (sse.Frame, error) {
	return s.dec.Next()
}

// Close releases the underlying response body.
func (s *MessageStream) Close() error {
	return s.body.Close()
}
