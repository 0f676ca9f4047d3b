package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"regenq/internal/api"
	"regenq/internal/config"
	"regenq/internal/queue"
	"regenq/internal/tags"
)

const (
	defaultUserAgent = "regenq/0.1.0"
	defaultTimeout   = 15 * time.Second
	maxErrorBody     = 4096

	queueItemsPath = "/api/queue-items"
	listSort       = "createdAt:desc"
)

// Client talks to the CMS REST API.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
}

type Option func(*Client)

// WithHTTPClient replaces the default client. Its timeout wins over
// WithTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// New builds a client rooted at baseURL. A bare host:port gets an http
// scheme.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("cms base url is required")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse cms base url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""

	c := &Client{
		base:      base,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig targets cfg.StoreURL with the configured timeout.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	opts = append([]Option{WithTimeout(cfg.CMSTimeout())}, opts...)
	return New(cfg.StoreURL(), opts...)
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) Create(ctx context.Context, token string, item queue.NewItem) (*queue.Item, error) {
	body := api.CreateQueueItemRequest{
		Slug:   item.Slug,
		Field:  string(item.Field),
		Status: string(item.Status),
	}
	var resp api.QueueItemResponse
	if err := c.do(ctx, "create", token, http.MethodPost, queueItemsPath, nil, body, &resp); err != nil {
		return nil, err
	}
	return requireItem("create", resp)
}

// Get returns nil, nil when the item does not exist.
func (c *Client) Get(ctx context.Context, token, id string) (*queue.Item, error) {
	path, err := itemPath("get", id)
	if err != nil {
		return nil, err
	}
	var resp api.QueueItemResponse
	err = c.do(ctx, "get", token, http.MethodGet, path, nil, nil, &resp)
	if errors.Is(err, queue.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return requireItem("get", resp)
}

func (c *Client) List(ctx context.Context, token string, opts queue.ListOptions) (*queue.Page, error) {
	opts = opts.Normalized()
	query := url.Values{}
	query.Set("page", strconv.Itoa(opts.Page))
	query.Set("pageSize", strconv.Itoa(opts.PageSize))
	query.Set("sort", listSort)
	if opts.Status != "" {
		query.Set("status", string(opts.Status))
	}
	if opts.Slug != "" {
		query.Set("slug", opts.Slug)
	}
	var resp api.QueueListResponse
	if err := c.do(ctx, "list", token, http.MethodGet, queueItemsPath, query, nil, &resp); err != nil {
		return nil, err
	}
	page, err := api.ToPage(resp)
	if err != nil {
		return nil, queue.Upstream("list", fmt.Errorf("decode response: %w", err))
	}
	return page, nil
}

// LatestBySlug returns nil, nil when no item exists for slug.
func (c *Client) LatestBySlug(ctx context.Context, token, slug string) (*queue.Item, error) {
	query := url.Values{}
	query.Set("slug", slug)
	var resp api.QueueItemResponse
	if err := c.do(ctx, "latest", token, http.MethodGet, queueItemsPath+"/latest", query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Item == nil {
		return nil, nil
	}
	return requireItem("latest", resp)
}

func (c *Client) Update(ctx context.Context, token, id string, patch queue.Patch) (*queue.Item, error) {
	path, err := itemPath("update", id)
	if err != nil {
		return nil, err
	}
	var resp api.QueueItemResponse
	if err := c.do(ctx, "update", token, http.MethodPatch, path, nil, api.FromPatch(patch), &resp); err != nil {
		return nil, err
	}
	return requireItem("update", resp)
}

func (c *Client) Delete(ctx context.Context, token, id string) error {
	path, err := itemPath("delete", id)
	if err != nil {
		return err
	}
	return c.do(ctx, "delete", token, http.MethodDelete, path, nil, nil, nil)
}

// EntryTags fetches the tags attached to a catalog entry.
func (c *Client) EntryTags(ctx context.Context, token, slug string) ([]tags.Tag, error) {
	var resp api.TagListResponse
	path := "/api/entries/" + url.PathEscape(slug) + "/tags"
	if err := c.do(ctx, "entry tags", token, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return api.ToTags(resp), nil
}

func (c *Client) do(ctx context.Context, op, token, method, path string, query url.Values, body, out any) error {
	if strings.TrimSpace(token) == "" {
		return queue.AuthRequired(op)
	}

	// path arrives escaped; both forms are set so escaped segments survive.
	endpoint := *c.base
	endpoint.RawPath = c.base.EscapedPath() + path
	unescaped, err := url.PathUnescape(endpoint.RawPath)
	if err != nil {
		return queue.Upstream(op, fmt.Errorf("build request path: %w", err))
	}
	endpoint.Path = unescaped
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return queue.Upstream(op, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return queue.Upstream(op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return queue.Upstream(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return queue.Upstream(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(raw))
	var payload api.ErrorResponse
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		detail = payload.Error
	}
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	detail = fmt.Sprintf("%d: %s", resp.StatusCode, detail)

	var kind error
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = queue.ErrAuthenticationRequired
	case http.StatusNotFound:
		kind = queue.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = queue.ErrValidation
	default:
		kind = queue.ErrUpstreamUnavailable
	}
	return &queue.Error{Kind: kind, Op: op, Detail: detail}
}

func requireItem(op string, resp api.QueueItemResponse) (*queue.Item, error) {
	if resp.Item == nil {
		return nil, queue.Upstream(op, errors.New("response carried no item"))
	}
	item, err := api.ToQueueItem(*resp.Item)
	if err != nil {
		return nil, queue.Upstream(op, fmt.Errorf("decode response: %w", err))
	}
	return item, nil
}

func itemPath(op, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", queue.Validation(op, "item id is required")
	}
	return queueItemsPath + "/" + url.PathEscape(id), nil
}

var _ queue.Repository = (*Client)(nil)
