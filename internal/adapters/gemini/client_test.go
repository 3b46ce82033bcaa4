package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + "```json\\n" + `{\"title\":\"x\"}"},{"text":"\n` + "```" + `"}]}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "gemini-2.5-flash", "secret", 0, srv.Client())
	text, err := client.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"title\":\"x\"}\n```", text)
}

func TestClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "m", "", 0, nil).Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewClient(srv.URL, "m", "k", 0, srv.Client()).Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestFirstCandidateText(t *testing.T) {
	_, err := firstCandidateText(generateContentResponse{})
	assert.Error(t, err)

	var blocked generateContentResponse
	require.NoError(t, json.Unmarshal([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`), &blocked))
	_, err = firstCandidateText(blocked)
	assert.ErrorContains(t, err, "SAFETY")
}
