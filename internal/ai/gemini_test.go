package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeminiProvider_GenerateContent(t *testing.T) {
	var gotPath string
	var gotReq geminiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, "secret-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []struct {
				Content geminiContent `json:"content"`
			}{
				{Content: geminiContent{Parts: []geminiPart{
					{Text: `{"text":"part one`},
					{Text: ` and two","fileTree":{}}`},
				}}},
			},
		})
	}))
	defer srv.Close()

	p := NewGeminiProvider("secret-key", srv.URL, "gemini-2.0-flash")

	out, err := p.GenerateContent(context.Background(), "build me a thing")
	require.NoError(t, err)
	require.Equal(t, `{"text":"part one and two","fileTree":{}}`, out)

	require.Equal(t, "/models/gemini-2.0-flash:generateContent", gotPath)
	require.Equal(t, "application/json", gotReq.GenerationConfig.ResponseMimeType)
	require.InDelta(t, 0.4, gotReq.GenerationConfig.Temperature, 0.001)
	require.NotNil(t, gotReq.SystemInstruction)
	require.Len(t, gotReq.Contents, 1)
	require.Equal(t, "user", gotReq.Contents[0].Role)
	require.Equal(t, "build me a thing", gotReq.Contents[0].Parts[0].Text)
}

func TestGeminiProvider_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewGeminiProvider("k", srv.URL, "")

	_, err := p.GenerateContent(context.Background(), "hi")
	require.Error(t, err)
}

func TestGeminiProvider_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider("k", srv.URL, "")

	_, err := p.GenerateContent(context.Background(), "hi")
	require.Error(t, err)
}
