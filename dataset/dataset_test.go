package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braintrustdata/prompteval-go/internal/https"
)

func TestLoadJSONL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gsm8k.jsonl")
	content := `{"question":"Q1","answer":"a\n#### 1"}
{"question":"Q2","answer":"b\n#### 2"}

{"question":"Q3","answer":"c\n#### 3"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	all, err := LoadJSONL(path, 0)
	require.NoError(t, err)
	assert.Equal(t, []Sample{
		{Question: "Q1", Answer: "a\n#### 1"},
		{Question: "Q2", Answer: "b\n#### 2"},
		{Question: "Q3", Answer: "c\n#### 3"},
	}, all)

	two, err := LoadJSONL(path, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
	assert.Equal(t, "Q2", two[1].Question)
}

func TestLoadJSONL_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadJSONL(filepath.Join(t.TempDir(), "missing.jsonl"), 0)
	assert.Error(t, err)

	_, err = DecodeJSONL(strings.NewReader(`{"question":"","answer":"x"}`), 0)
	assert.ErrorIs(t, err, errInvalidSample)

	_, err = DecodeJSONL(strings.NewReader(`not json`), 0)
	assert.Error(t, err)
}

// fakeHub serves n rows of a split in datasets-server format.
func fakeHub(t *testing.T, n int, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "/rows", r.URL.Path)
		assert.Equal(t, "openai/gsm8k", q.Get("dataset"))
		assert.Equal(t, "main", q.Get("config"))
		assert.Equal(t, "train", q.Get("split"))

		offset, _ := strconv.Atoi(q.Get("offset"))
		length, _ := strconv.Atoi(q.Get("length"))
		assert.LessOrEqual(t, length, maxPageRows)

		type row struct {
			RowIdx int    `json:"row_idx"`
			Row    Sample `json:"row"`
		}
		page := struct {
			Rows  []row `json:"rows"`
			Total int   `json:"num_rows_total"`
		}{Rows: []row{}, Total: n}
		for i := offset; i < offset+length && i < n; i++ {
			page.Rows = append(page.Rows, row{RowIdx: i, Row: Sample{
				Question: fmt.Sprintf("Q%d", i),
				Answer:   fmt.Sprintf("work\n#### %d", i),
			}})
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHubClient_LoadPaginates(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	srv := fakeHub(t, 250, &requests)
	hub, err := NewHubClient(WithHubURL(srv.URL), WithHubHTTPClient(srv.Client()))
	require.NoError(t, err)

	samples, err := hub.Load(context.Background(), HubQuery{Dataset: "openai/gsm8k", Config: "main", Split: "train"})
	require.NoError(t, err)
	require.Len(t, samples, 250)
	assert.Equal(t, "Q0", samples[0].Question)
	assert.Equal(t, "Q249", samples[249].Question)
	assert.EqualValues(t, 3, requests.Load())
}

func TestHubClient_LoadLimit(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	srv := fakeHub(t, 7473, &requests)
	hub, err := NewHubClient(WithHubURL(srv.URL))
	require.NoError(t, err)

	samples, err := hub.Load(context.Background(), HubQuery{Dataset: "openai/gsm8k", Config: "main", Split: "train", Limit: 130})
	require.NoError(t, err)
	assert.Len(t, samples, 130)
	assert.Equal(t, "Q129", samples[129].Question)
	assert.EqualValues(t, 2, requests.Load())
}

func TestHubClient_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer hf_secret", r.Header.Get("Authorization"))
		http.Error(w, `{"error":"dataset is gated"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	hub, err := NewHubClient(WithHubURL(srv.URL), WithHubToken("hf_secret"))
	require.NoError(t, err)

	_, err = hub.Load(context.Background(), HubQuery{Dataset: "openai/gsm8k", Config: "main", Split: "train"})
	assert.ErrorIs(t, err, https.ErrStatus)

	_, err = hub.Load(context.Background(), HubQuery{Dataset: "openai/gsm8k"})
	assert.ErrorIs(t, err, errInvalidSample)
}
