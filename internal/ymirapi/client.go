// Package ymirapi is the HTTP client of the dataset backend. It implements
// gateway.Client.
package ymirapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/on-the-ground/ymir_dataset/effects/gateway"
	"github.com/on-the-ground/ymir_dataset/model"
)

// DefaultTimeout bounds one request when no http.Client is given.
const DefaultTimeout = 30 * time.Second

// Client talks to the backend REST API under baseURL.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
}

var _ gateway.Client = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the API rooted at baseURL, e.g. http://host/api/v1.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ListDatasets(ctx context.Context, query model.DatasetQuery) (gateway.Envelope[model.DatasetCollection], error) {
	return call[model.DatasetCollection](ctx, c, http.MethodGet, "/datasets/", datasetValues(query), nil)
}

func (c *Client) GetDataset(ctx context.Context, id int) (gateway.Envelope[model.Dataset], error) {
	return call[model.Dataset](ctx, c, http.MethodGet, "/datasets/"+strconv.Itoa(id), nil, nil)
}

func (c *Client) BatchDatasets(ctx context.Context, ids string) (gateway.Envelope[[]model.Dataset], error) {
	return call[[]model.Dataset](ctx, c, http.MethodGet, "/datasets/batch", url.Values{"ids": {ids}}, nil)
}

func (c *Client) DeleteDataset(ctx context.Context, id int) (gateway.Envelope[model.Dataset], error) {
	return call[model.Dataset](ctx, c, http.MethodDelete, "/datasets/"+strconv.Itoa(id), nil, nil)
}

func (c *Client) CreateDataset(ctx context.Context, params model.CreateDatasetParams) (gateway.Envelope[model.Dataset], error) {
	return call[model.Dataset](ctx, c, http.MethodPost, "/datasets/importing", nil, params)
}

func (c *Client) UpdateDataset(ctx context.Context, params model.UpdateDatasetParams) (gateway.Envelope[model.Dataset], error) {
	return call[model.Dataset](ctx, c, http.MethodPatch, "/datasets/"+strconv.Itoa(params.ID), nil, params)
}

func (c *Client) ListAssets(ctx context.Context, query model.AssetQuery) (gateway.Envelope[model.AssetCollection], error) {
	v := url.Values{}
	setString(v, "keyword", query.Keyword)
	setInt(v, "offset", query.Offset)
	setInt(v, "limit", query.Limit)
	return call[model.AssetCollection](ctx, c, http.MethodGet, "/datasets/"+strconv.Itoa(query.DatasetID)+"/assets", v, nil)
}

func (c *Client) GetAsset(ctx context.Context, hash string) (gateway.Envelope[model.Asset], error) {
	return call[model.Asset](ctx, c, http.MethodGet, "/assets/"+url.PathEscape(hash), nil, nil)
}

func (c *Client) ListInternalDatasets(ctx context.Context, query model.DatasetQuery) (gateway.Envelope[model.DatasetCollection], error) {
	return call[model.DatasetCollection](ctx, c, http.MethodGet, "/datasets/public", datasetValues(query), nil)
}

func (c *Client) GetDatasetStats(ctx context.Context, limit int) (gateway.Envelope[[]model.RankedPair], error) {
	v := url.Values{}
	setInt(v, "limit", limit)
	return call[[]model.RankedPair](ctx, c, http.MethodGet, "/stats/keywords/datasets/hot", v, nil)
}

// call sends one request and decodes the envelope. Any failure before a
// decoded envelope, including a non-2xx status, wraps gateway.ErrTransport.
func call[T any](
	ctx context.Context,
	c *Client,
	method string,
	path string,
	query url.Values,
	body any,
) (gateway.Envelope[T], error) {
	var env gateway.Envelope[T]

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return env, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	u := c.baseURL.JoinPath(path)
	if strings.HasSuffix(path, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return env, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return env, fmt.Errorf("%w: execute request: %w", gateway.ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return env, fmt.Errorf("%w: read response: %w", gateway.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return env, fmt.Errorf("%w: server error: %s - %s", gateway.ErrTransport, resp.Status, string(respBody))
	}

	if err := json.Unmarshal(respBody, &env); err != nil {
		return env, fmt.Errorf("%w: unmarshal response: %w", gateway.ErrTransport, err)
	}
	return env, nil
}

func datasetValues(q model.DatasetQuery) url.Values {
	v := url.Values{}
	setInt(v, "project_id", q.ProjectID)
	setInt(v, "group_id", q.GroupID)
	setString(v, "name", q.Name)
	setInt(v, "state", int(q.State))
	if q.IsPublic {
		v.Set("is_public", "true")
	}
	setInt(v, "offset", q.Offset)
	setInt(v, "limit", q.Limit)
	return v
}

func setInt(v url.Values, key string, n int) {
	if n != 0 {
		v.Set(key, strconv.Itoa(n))
	}
}

func setString(v url.Values, key, s string) {
	if s != "" {
		v.Set(key, s)
	}
}
