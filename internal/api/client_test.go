// ABOUTME: Tests for the chat service HTTP client
// ABOUTME: Covers session lifecycle, streamed messages, and error detail decoding

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/scribe/internal/sse"
)

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat/session/new", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"session_id": "s1"})
	}))
	defer srv.Close()

	client := New(srv.URL, 0)
	id, err := client.CreateSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "s1", id)
}

func TestCreateSession_ServerDetailSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "session store unavailable"})
	}))
	defer srv.Close()

	client := New(srv.URL, 0)
	_, err := client.CreateSession(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session store unavailable")
}

func TestDeleteSession_NotFoundIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/chat/session/gone", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(srv.URL, 0)
	assert.NoError(t, client.DeleteSession(context.Background(), "gone"))
}

func TestDeleteSession_OtherErrorsPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(srv.URL, 0)
	err := client.DeleteSession(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSendMessage_StreamsFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat/message", r.URL.Path)

		var req SendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "What is X?", req.Message)
		assert.Equal(t, "s1", req.SessionID)
		assert.Equal(t, 5, req.TopK)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		// Flush mid-line to force a frame split across network reads.
		io.WriteString(w, "data: {\"content\": \"X \"}\n\ndata: {\"con")
		flusher.Flush()
		io.WriteString(w, "tent\": \"is Y.\"}\n\ndata: {\"done\": true}\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	client := New(srv.URL, 0)
	stream, err := client.SendMessage(context.Background(), SendMessageRequest{
		Message:   "What is X?",
		SessionID: "s1",
		TopK:      5,
	})
	require.NoError(t, err)
	defer stream.Close()

	var frames []sse.Frame
	for {
		frame, err := stream.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		frames = append(frames, frame)
	}

	require.Len(t, frames, 3)
	assert.Equal(t, "X ", frames[0].Content)
	assert.Equal(t, "is Y.", frames[1].Content)
	assert.True(t, frames[2].Done)
}

func TestSendMessage_DocumentIDsOmittedWhenNil(t *testing.T) {
	var rawBody map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rawBody))
		io.WriteString(w, "data: {\"done\": true}\n\n")
	}))
	defer srv.Close()

	client := New(srv.URL, 0)

	stream, err := client.SendMessage(context.Background(), SendMessageRequest{
		Message: "hi", SessionID: "s1", TopK: 5,
	})
	require.NoError(t, err)
	stream.Close()
	_, hasField := rawBody["document_ids"]
	assert.False(t, hasField, "nil context must omit the field entirely")

	stream, err = client.SendMessage(context.Background(), SendMessageRequest{
		Message: "hi", SessionID: "s1", TopK: 5, DocumentIDs: []string{"d1", "d2"},
	})
	require.NoError(t, err)
	stream.Close()
	require.Contains(t, rawBody, "document_ids")
	var ids []string
	require.NoError(t, json.Unmarshal(rawBody["document_ids"], &ids))
	assert.Equal(t, []string{"d1", "d2"}, ids)
}

func TestSendMessage_HTTPErrorBeforeStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"detail": "no models loaded"})
	}))
	defer srv.Close()

	client := New(srv.URL, 0)
	_, err := client.SendMessage(context.Background(), SendMessageRequest{
		Message: "hi", SessionID: "s1", TopK: 5,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no models loaded")
}

func TestListDocuments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/documents", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"documents": []Document{
				{ID: "d1", Filename: "notes.pdf", Size: 1024},
				{ID: "d2", Filename: "paper.txt", Size: 2048},
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, 0)
	docs, err := client.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "notes.pdf", docs[0].Filename)
	assert.Equal(t, "d2", docs[1].ID)
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/models", r.URL.Path)
		json.NewEncoder(w).Encode(map[string][]string{"models": {"llama3", "mistral"}})
	}))
	defer srv.Close()

	client := New(srv.URL, 0)
	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3", "mistral"}, models)
}

func TestDeleteDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/documents/d1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}))
	defer srv.Close()

	client := New(srv.URL, 0)
	assert.NoError(t, client.DeleteDocument(context.Background(), "d1"))
}
