// ABOUTME: Chat session controller: session identity, history, and streaming submission
// ABOUTME: Record-first persistence; every terminal stream outcome returns the controller to idle

package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/scribe/internal/api"
	"github.com/2389/scribe/internal/docctx"
	"github.com/2389/scribe/internal/statestore"
	"github.com/2389/scribe/internal/sse"
)

// Persisted state keys. The context selection is intentionally absent: it
// resets with each run.
const (
	sessionKey = "session_id"
	historyKey = "messages"
)

// FrameStream is a single-use stream of decoded response frames.
type FrameStream interface {
	Next() (sse.Frame, error)
	Close() error
}

// SessionAPI is what the controller needs from the service client.
type SessionAPI interface {
	CreateSession(ctx context.Context) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
	SendMessage(ctx context.Context, req api.SendMessageRequest) (FrameStream, error)
}

// Listener receives live updates while a submission streams. Calls are made
// from the submitting goroutine in arrival order; implementations should
// return quickly.
type Listener interface {
	// Typing reports an incremental fragment and the full accumulated
	// in-progress reply. Nothing has been committed to history yet.
	Typing(chunk, partial string)

	// Committed reports a message that was just appended to history.
	Committed(msg Message)
}

// Options configures a Controller.
type Options struct {
	// Model is sent with each message; empty lets the server choose.
	Model string

	// TopK is the retrieval result count per question. Defaults to 5.
	TopK int

	// Listener observes streaming progress. Optional.
	Listener Listener

	Logger *slog.Logger
}

// Controller owns the chat session: its identity, the committed message
// history, the in-flight streaming accumulator, and the busy flag that
// serializes submissions. All durable state changes are written through the
// state store immediately, so a reload reconstructs the last committed
// conversation; only an in-flight uncommitted fragment can ever be lost.
type Controller struct {
	apiClient SessionAPI
	store     *statestore.Store
	selector  *docctx.Selector
	listener  Listener
	logger    *slog.Logger
	model     string
	topK      int

	mu        sync.Mutex
	sessionID string
	history   []Message
	busy      bool
	accum     strings.Builder
}

// New creates a controller. Call Initialize before submitting.
func New(apiClient SessionAPI, store *statestore.Store, selector *docctx.Selector, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}
	return &Controller{
		apiClient: apiClient,
		store:     store,
		selector:  selector,
		listener:  opts.Listener,
		logger:    logger.With("component", "chat"),
		model:     opts.Model,
		topK:      topK,
	}
}

// Initialize restores persisted state and ensures a session exists. A
// persisted session id is reused without a network call; otherwise a new
// session is requested and persisted. Session creation failure is logged
// and non-fatal — the controller stays usable, but Submit is a no-op until
// a session id exists.
func (c *Controller) Initialize(ctx context.Context) {
	c.mu.Lock()
	c.history = statestore.Get(c.store, historyKey, []Message(nil))
	c.sessionID = statestore.Get(c.store, sessionKey, "")
	sessionID := c.sessionID
	restored := len(c.history)
	c.mu.Unlock()

	if sessionID != "" {
		c.logger.Debug("reusing persisted session", "session_id", sessionID, "messages", restored)
		return
	}

	c.createSession(ctx)
}

// createSession requests and persists a fresh session id.
func (c *Controller) createSession(ctx context.Context) {
	id, err := c.apiClient.CreateSession(ctx)
	if err != nil {
		c.logger.Warn("session creation failed, submissions disabled until a session exists", "error", err)
		return
	}

	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
	statestore.Set(c.store, sessionKey, id)

	c.logger.Info("session created", "session_id", id)
}

// Submit sends a user message and blocks until the streamed reply reaches a
// terminal outcome. Preconditions — non-empty trimmed text, an active
// session, and no submission already in flight — fail silently: the attempt
// is logged and dropped, never queued and never surfaced as an error.
func (c *Controller) Submit(ctx context.Context, text string) {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if text == "" || c.sessionID == "" || c.busy {
		busy := c.busy
		hasSession := c.sessionID != ""
		c.mu.Unlock()
		c.logger.Debug("submission ignored",
			"empty", text == "", "has_session", hasSession, "busy", busy)
		return
	}
	c.busy = true
	c.accum.Reset()
	sessionID := c.sessionID
	model := c.model

	userMsg := newMessage(RoleUser, text)
	c.history = append(c.history, userMsg)
	c.mu.Unlock()

	// Optimistic commit: the user message is durable before the request
	// is even sent.
	c.persistHistory()
	c.notifyCommitted(userMsg)

	req := api.SendMessageRequest{
		Message:     text,
		SessionID:   sessionID,
		TopK:        c.topK,
		Model:       model,
		DocumentIDs: c.effectiveContext(),
	}

	stream, err := c.apiClient.SendMessage(ctx, req)
	if err != nil {
		c.commitError(errorText(err))
		return
	}
	defer stream.Close()

	c.consume(stream)
}

// consume drains the stream until a terminal frame, stream end, or a
// transport failure. Every exit path clears the busy flag by committing
// exactly one assistant message.
func (c *Controller) consume(stream FrameStream) {
	for {
		frame, err := stream.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// The server closed the stream without a terminal
				// frame; the reply cannot be trusted as complete.
				c.commitError("stream ended before completion")
			} else {
				c.commitError(errorText(err))
			}
			return
		}

		switch {
		case frame.Error != "":
			c.commitError(frame.Error)
			return
		case frame.Done:
			c.commitReply()
			return
		case frame.Content != "":
			c.mu.Lock()
			c.accum.WriteString(frame.Content)
			partial := c.accum.String()
			c.mu.Unlock()
			c.notifyTyping(frame.Content, partial)
		}
	}
}

// commitReply appends the accumulated reply to history and returns the
// controller to idle.
func (c *Controller) commitReply() {
	c.mu.Lock()
	msg := newMessage(RoleAssistant, c.accum.String())
	c.history = append(c.history, msg)
	c.accum.Reset()
	c.busy = false
	c.mu.Unlock()

	c.persistHistory()
	c.notifyCommitted(msg)
}

// commitError renders a failure as conversational content and returns the
// controller to idle. In-band server errors and transport failures surface
// identically.
func (c *Controller) commitError(detail string) {
	c.mu.Lock()
	msg := newMessage(RoleAssistant, fmt.Sprintf("Error: %s", detail))
	c.history = append(c.history, msg)
	c.accum.Reset()
	c.busy = false
	c.mu.Unlock()

	c.logger.Warn("submission failed", "error", detail)
	c.persistHistory()
	c.notifyCommitted(msg)
}

// StartNewConversation resets local state immediately and requests a fresh
// session. The old session is deleted server-side on a best-effort,
// fire-and-forget basis — a slow or failing server never delays the local
// reset.
func (c *Controller) StartNewConversation(ctx context.Context) {
	c.mu.Lock()
	oldSession := c.sessionID
	c.sessionID = ""
	c.history = nil
	c.accum.Reset()
	c.busy = false
	c.mu.Unlock()

	c.store.Remove(sessionKey)
	c.store.Remove(historyKey)

	if oldSession != "" {
		go func() {
			if err := c.apiClient.DeleteSession(context.WithoutCancel(ctx), oldSession); err != nil {
				c.logger.Warn("failed to delete old session", "session_id", oldSession, "error", err)
			}
		}()
	}

	c.createSession(ctx)
}

// History returns a copy of the committed message history in append order.
func (c *Controller) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.history))
	copy(out, c.history)
	return out
}

// SessionID returns the active session id, or "" when none exists.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Model returns the model sent with each message, "" for the server default.
func (c *Controller) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetModel changes the model sent with subsequent messages. The active
// session keeps its history; only future requests are affected.
func (c *Controller) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// Busy reports whether a submission is currently streaming.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// StreamingContent returns the uncommitted in-progress reply, for live
// display. Empty when idle.
func (c *Controller) StreamingContent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accum.String()
}

// persistHistory writes the committed history through to the state store.
// The store itself degrades gracefully on persistence failures.
func (c *Controller) persistHistory() {
	c.mu.Lock()
	snapshot := make([]Message, len(c.history))
	copy(snapshot, c.history)
	c.mu.Unlock()

	statestore.Set(c.store, historyKey, snapshot)
}

// effectiveContext resolves the document restriction for the next request.
func (c *Controller) effectiveContext() []string {
	if c.selector == nil {
		return nil
	}
	return c.selector.EffectiveContext()
}

func (c *Controller) notifyTyping(chunk, partial string) {
	if c.listener != nil {
		c.listener.Typing(chunk, partial)
	}
}

func (c *Controller) notifyCommitted(msg Message) {
	if c.listener != nil {
		c.listener.Committed(msg)
	}
}

// errorText extracts a display message from an error.
func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
