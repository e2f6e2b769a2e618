package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeminiClientRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient("", "gemini-1.5-pro", time.Second)
	assert.Error(t, err)

	_, err = NewGeminiClient("   ", "gemini-1.5-pro", time.Second)
	assert.Error(t, err)

	client, err := NewGeminiClient("key", "", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", client.Model())
}

func TestGenerateConcatenatesCandidateText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "models/gemini-1.5-pro:generateContent")
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, 0.1, req.GenerationConfig.Temperature)

		_ = json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []struct {
				Content geminiContent `json:"content"`
			}{
				{Content: geminiContent{Parts: []geminiPart{{Text: "hello "}, {Text: "world"}}}},
			},
		})
	}))
	defer server.Close()

	client, err := NewGeminiClient("secret", "gemini-1.5-pro", time.Second)
	require.NoError(t, err)
	client.baseURL = server.URL

	text, err := client.Generate(context.Background(), "classify this", GenerationOptions{Temperature: 0.1})
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestGenerateErrorsOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewGeminiClient("secret", "gemini-1.5-pro", time.Second)
	require.NoError(t, err)
	client.baseURL = server.URL

	_, err = client.Generate(context.Background(), "prompt", GenerationOptions{})
	assert.ErrorContains(t, err, "status 429")
}

func TestGenerateErrorsOnEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiResponse{})
	}))
	defer server.Close()

	client, err := NewGeminiClient("secret", "gemini-1.5-pro", time.Second)
	require.NoError(t, err)
	client.baseURL = server.URL

	_, err = client.Generate(context.Background(), "prompt", GenerationOptions{})
	assert.ErrorContains(t, err, "empty response")
}
