package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientAnalyzeText(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/v1/analyze", r.URL.Path)
		assert.Equal("Bearer test-token", r.Header.Get("Authorization"))

		var req analyzeRequest
		require.NoError(json.NewDecoder(r.Body).Decode(&req))
		assert.Equal("some text", req.Text)

		spam := 85.5
		json.NewEncoder(w).Encode(Scores{SpamScore: &spam, Language: "en"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "test-token", 100)
	scores, err := c.AnalyzeText(ctx, "some text")
	require.NoError(err)
	require.NotNil(scores.SpamScore)
	assert.Equal(85.5, *scores.SpamScore)
	// absent signals stay nil, they are not zeroed
	assert.Nil(scores.ToxicityScore)
	assert.Equal("en", scores.Language)
}

func TestHTTPClientErrorStatus(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "", 100)
	_, err := c.AnalyzeText(context.Background(), "some text")
	assert.Error(err)
}
