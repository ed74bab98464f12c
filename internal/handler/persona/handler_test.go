package persona

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sasusavage/SourceScout/internal/model/persona"
)

func TestListPersonalities(t *testing.T) {
	r := chi.NewRouter()
	New(persona.NewMemoryStore(persona.Seed(), "fluent")).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/personalities", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Personalities []map[string]any `json:"personalities"`
		Default       string           `json:"default"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "fluent", body.Default)
	require.Len(t, body.Personalities, 2)
	require.Equal(t, "pidgin", body.Personalities[0]["id"])
	require.NotContains(t, body.Personalities[0], "Prompt")
}
