package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/eday-ledger/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt([]domain.Candidate{
		{Name: "Thabo Molefe", Language: domain.LanguageTswana, Votes: 3},
		{Name: "Sibusiso Dlamini", Language: domain.LanguageZulu, Votes: 0},
	})

	require.Contains(t, prompt, "Current Standings:\nThabo Molefe (Tswana): 3 votes\nSibusiso Dlamini (Zulu): 0 votes\n")
	require.Contains(t, prompt, "Tswana and Zulu candidates")
}

func TestGeminiClient_Summarize(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		require.Equal(t, "k3y", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Thabo leads. "},{"text":"Turnout is low."}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(GeminiConfig{
		APIKey:   "k3y",
		Model:    "test-model",
		Endpoint: srv.URL + "/v1beta/",
		Timeout:  time.Second,
	}, zerolog.Nop())

	text, err := c.Summarize(context.Background(), domain.InitialCandidates())
	require.NoError(t, err)
	require.Equal(t, "Thabo leads. Turnout is low.", text)

	require.Equal(t, SystemInstruction, got.SystemInstruction.Parts[0].Text)
	require.Equal(t, Temperature, got.GenerationConfig.Temperature)
	require.True(t, strings.HasPrefix(got.Contents[0].Parts[0].Text, "Analyze the current results"))
}

func TestGeminiClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		want    string
	}{
		{name: "upstream failure", status: http.StatusTooManyRequests, body: `{"error":"quota"}`, wantErr: ErrUpstream},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewGeminiClient(GeminiConfig{Model: "m", Endpoint: srv.URL, Timeout: time.Second}, zerolog.Nop())
			text, err := c.Summarize(context.Background(), nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, text)
		})
	}
}
