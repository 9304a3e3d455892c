package https

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresBaseURL(t *testing.T) {
	t.Parallel()
	_, err := NewClient("")
	assert.Error(t, err)
}

func TestGetJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rows", r.URL.Path)
		assert.Equal(t, "openai/gsm8k", r.URL.Query().Get("dataset"))
		assert.Equal(t, "Bearer hf_token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"num_rows_total": 3}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithToken("hf_token"), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	var out struct {
		Total int `json:"num_rows_total"`
	}
	require.NoError(t, c.GetJSON(context.Background(), "/rows", url.Values{"dataset": {"openai/gsm8k"}}, &out))
	assert.Equal(t, 3, out.Total)
}

func TestGET_NoTokenNoAuthHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	resp, err := c.GET(context.Background(), "/", nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
}

func TestGET_StatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gated dataset", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	_, err = c.GET(context.Background(), "/rows", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStatus)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Contains(t, se.Body, "gated dataset")
}
