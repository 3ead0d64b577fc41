package ai

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

func TestGeminiClient_Generate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + "```html\\n<h1>Contract</h1>\\n```" + `"}]}}]}`))
	}))
	defer server.Close()

	client := NewGeminiClient(server.URL+"/v1beta/", 5*time.Second)
	text, err := client.Generate(context.Background(), Request{APIKey: "k-1", Model: "gemini-1.5-flash", Prompt: "write"})
	require.NoError(t, err)

	assert.Equal(t, "<h1>Contract</h1>", text)
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "k-1", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "write", gotBody.Contents[0].Parts[0].Text)
}

func TestGeminiClient_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	_, err := NewGeminiClient(server.URL, time.Second).Generate(context.Background(), Request{APIKey: "bad", Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiClient_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := NewGeminiClient(server.URL, time.Second).Generate(context.Background(), Request{APIKey: "k", Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "<p>x</p>", StripFences("```html\n<p>x</p>\n```"))
	assert.Equal(t, "<p>x</p>", StripFences("  <p>x</p>  "))
	assert.Equal(t, "plain", StripFences("```\nplain```"))
}

func TestPrompts(t *testing.T) {
	p := TemplatePrompt("A maintenance agreement for HVAC", []string{"provider_name", "amount"}, "", "")
	assert.Contains(t, p, "Tone: professional. Language: English.")
	assert.Contains(t, p, "provider_name, amount")

	c := ContractPrompt("Maintenance", map[string]string{"amount": "5000"}, "Add penalties")
	assert.Contains(t, c, `Variables (JSON): {"amount":"5000"}`)
	assert.Contains(t, c, "Additional Requirements: Add penalties")
}
