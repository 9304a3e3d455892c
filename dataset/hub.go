package dataset

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/braintrustdata/prompteval-go/internal/https"
	"github.com/braintrustdata/prompteval-go/logger"
)

// DefaultHubURL is the Hugging Face datasets server.
const DefaultHubURL = "https://datasets-server.huggingface.co"

// maxPageRows is the largest page the datasets server returns.
const maxPageRows = 100

// HubQuery selects a dataset split. Limit 0 loads every row.
type HubQuery struct {
	Dataset string
	Config  string
	Split   string
	Limit   int
}

// HubClient pages through the rows of a dataset split on the datasets server.
type HubClient struct {
	client *https.Client
	logger logger.Logger
}

type hubOptions struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     logger.Logger
}

// HubOption configures a HubClient.
type HubOption func(*hubOptions)

// WithHubURL overrides DefaultHubURL.
func WithHubURL(u string) HubOption {
	return func(o *hubOptions) { o.baseURL = u }
}

// WithHubToken authenticates requests, required for gated datasets.
func WithHubToken(token string) HubOption {
	return func(o *hubOptions) { o.token = token }
}

// WithHubHTTPClient replaces the HTTP client.
func WithHubHTTPClient(hc *http.Client) HubOption {
	return func(o *hubOptions) { o.httpClient = hc }
}

// WithHubLogger sets the logger.
func WithHubLogger(l logger.Logger) HubOption {
	return func(o *hubOptions) { o.logger = l }
}

// NewHubClient creates a client for the datasets server.
func NewHubClient(opts ...HubOption) (*HubClient, error) {
	o := &hubOptions{baseURL: DefaultHubURL}
	for _, opt := range opts {
		opt(o)
	}
	l := logger.OrDiscard(o.logger)

	client, err := https.NewClient(o.baseURL,
		https.WithToken(o.token),
		https.WithHTTPClient(o.httpClient),
		https.WithLogger(l),
	)
	if err != nil {
		return nil, err
	}
	return &HubClient{client: client, logger: l}, nil
}

type rowsPage struct {
	Rows []struct {
		RowIdx int    `json:"row_idx"`
		Row    Sample `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

// Load returns the split's samples in row order.
func (h *HubClient) Load(ctx context.Context, q HubQuery) ([]Sample, error) {
	if q.Dataset == "" || q.Split == "" {
		return nil, fmt.Errorf("%w: dataset and split are required", errInvalidSample)
	}

	var samples []Sample
	for offset := 0; ; {
		length := maxPageRows
		if q.Limit > 0 && q.Limit-len(samples) < length {
			length = q.Limit - len(samples)
		}

		params := url.Values{}
		params.Set("dataset", q.Dataset)
		if q.Config != "" {
			params.Set("config", q.Config)
		}
		params.Set("split", q.Split)
		params.Set("offset", strconv.Itoa(offset))
		params.Set("length", strconv.Itoa(length))

		var page rowsPage
		if err := h.client.GetJSON(ctx, "/rows", params, &page); err != nil {
			return nil, fmt.Errorf("load %s/%s offset %d: %w", q.Dataset, q.Split, offset, err)
		}
		for _, r := range page.Rows {
			if err := validate(r.Row); err != nil {
				return nil, fmt.Errorf("row %d: %w", r.RowIdx, err)
			}
			samples = append(samples, r.Row)
		}
		offset += len(page.Rows)

		h.logger.Debug("dataset page loaded",
			"dataset", q.Dataset,
			"offset", offset,
			"total", page.NumRowsTotal)

		switch {
		case len(page.Rows) == 0,
			offset >= page.NumRowsTotal,
			q.Limit > 0 && len(samples) >= q.Limit:
			h.logger.Info("dataset loaded", "dataset", q.Dataset, "split", q.Split, "samples", len(samples))
			return truncate(samples, q.Limit), nil
		}
	}
}
