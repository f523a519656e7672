package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/user/page-archive-service/internal/entity"
	"github.com/user/page-archive-service/pkg/metrics"
)

const (
	expandPage        = "body.export_view,body.storage,body.view,children.page"
	expandAttachments = "children.attachment"
)

// Options controls how the content API is called.
type Options struct {
	Email        string
	APIToken     string
	Timeout      time.Duration
	RateLimit    float64 // requests per second, 0 disables limiting
	MaxBodyBytes int64
	UserAgent    string
	// HTTPClient overrides the default client, e.g. one carrying client certificates.
	HTTPClient *http.Client
}

// Client implements repository.ContentRepository over the REST content API.
type Client struct {
	httpClient   *http.Client
	email        string
	apiToken     string
	userAgent    string
	maxBodyBytes int64
	limiter      *rate.Limiter
	logger       *zap.Logger
}

// NewClient constructs a content API client.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 100 * 1024 * 1024
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "page-archive-service/1.0"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		httpClient:   httpClient,
		email:        opts.Email,
		apiToken:     opts.APIToken,
		userAgent:    opts.UserAgent,
		maxBodyBytes: opts.MaxBodyBytes,
		limiter:      limiter,
		logger:       logger,
	}
}

type bodyRepresentation struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type childResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type attachmentResult struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Links struct {
		Download string `json:"download"`
	} `json:"_links"`
}

type contentResponse struct {
	ID       string                        `json:"id"`
	Type     string                        `json:"type"`
	Title    string                        `json:"title"`
	Body     map[string]bodyRepresentation `json:"body"`
	Children struct {
		Page struct {
			Results []childResult `json:"results"`
		} `json:"page"`
		Attachment struct {
			Results []attachmentResult `json:"results"`
		} `json:"attachment"`
	} `json:"children"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
}

type storageBody struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type updateRequest struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  struct {
		Storage storageBody `json:"storage"`
	} `json:"body"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
}

func contentURL(apiBase, id string, query url.Values) string {
	u := strings.TrimSuffix(apiBase, "/") + "/" + url.PathEscape(id)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// FetchPage retrieves a page with every body representation and its direct children.
func (c *Client) FetchPage(ctx context.Context, apiBase, pageID string) (*entity.RemotePage, error) {
	reqURL := contentURL(apiBase, pageID, url.Values{"expand": {expandPage}})
	var resp contentResponse
	if err := c.getJSON(ctx, "fetch_page", reqURL, pageID, entity.ErrRemoteFetchFailed, &resp); err != nil {
		return nil, err
	}

	page := &entity.RemotePage{
		ID:      resp.ID,
		Title:   resp.Title,
		Version: resp.Version.Number,
		Bodies:  make(map[string]string, len(resp.Body)),
	}
	if page.ID == "" {
		page.ID = pageID
	}
	for name, body := range resp.Body {
		if body.Value != "" {
			page.Bodies[name] = body.Value
		}
	}
	for _, child := range resp.Children.Page.Results {
		if child.ID == "" {
			continue
		}
		page.Children = append(page.Children, entity.ChildRef{ID: child.ID, Title: child.Title})
	}
	return page, nil
}

// ListAttachments lists the attachments of a page.
func (c *Client) ListAttachments(ctx context.Context, apiBase, pageID string) ([]entity.AttachmentRef, error) {
	reqURL := contentURL(apiBase, pageID, url.Values{"expand": {expandAttachments}})
	var resp contentResponse
	if err := c.getJSON(ctx, "list_attachments", reqURL, pageID, entity.ErrRemoteFetchFailed, &resp); err != nil {
		return nil, err
	}

	refs := make([]entity.AttachmentRef, 0, len(resp.Children.Attachment.Results))
	for _, att := range resp.Children.Attachment.Results {
		if att.ID == "" {
			continue
		}
		refs = append(refs, entity.AttachmentRef{
			ID:           att.ID,
			Title:        att.Title,
			DownloadPath: att.Links.Download,
		})
	}
	return refs, nil
}

// Download returns the bytes behind rawURL. An empty payload is not an error.
func (c *Client) Download(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, err := c.do(ctx, "download", http.MethodGet, rawURL, "", nil, entity.ErrRemoteFetchFailed)
	return body, err
}

// FetchVersion returns the current version number of a page.
func (c *Client) FetchVersion(ctx context.Context, apiBase, pageID string) (int, error) {
	reqURL := contentURL(apiBase, pageID, url.Values{"expand": {"version"}})
	var resp contentResponse
	if err := c.getJSON(ctx, "fetch_version", reqURL, pageID, entity.ErrRemoteOperationFailed, &resp); err != nil {
		return 0, err
	}
	if resp.Version.Number <= 0 {
		return 0, &entity.RemoteError{
			Kind:   entity.ErrRemoteOperationFailed,
			Op:     "fetch_version",
			PageID: pageID,
			URL:    reqURL,
			Err:    fmt.Errorf("response carries no version number"),
		}
	}
	return resp.Version.Number, nil
}

// UpdatePage replaces the storage body of a page with the given version.
func (c *Client) UpdatePage(ctx context.Context, apiBase string, update entity.PageUpdate) error {
	var payload updateRequest
	payload.ID = update.ID
	payload.Type = "page"
	payload.Title = update.Title
	payload.Body.Storage = storageBody{Value: update.Body, Representation: entity.RepresentationStorage}
	payload.Version.Number = update.Version

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode update request: %w", err)
	}
	reqURL := contentURL(apiBase, update.ID, nil)
	_, _, err = c.do(ctx, "update_page", http.MethodPut, reqURL, update.ID, data, entity.ErrRemoteOperationFailed)
	return err
}

// DeleteContent deletes a page or attachment.
func (c *Client) DeleteContent(ctx context.Context, apiBase, id string, trashed bool) error {
	var query url.Values
	op := "delete"
	if trashed {
		query = url.Values{"status": {"trashed"}}
		op = "delete_trashed"
	}
	reqURL := contentURL(apiBase, id, query)
	_, _, err := c.do(ctx, op, http.MethodDelete, reqURL, id, nil, entity.ErrRemoteOperationFailed)
	return err
}

func (c *Client) getJSON(ctx context.Context, op, reqURL, pageID string, kind error, out any) error {
	body, status, err := c.do(ctx, op, http.MethodGet, reqURL, pageID, nil, kind)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		metrics.RemoteCallsTotal.WithLabelValues(op, "empty").Inc()
		return &entity.RemoteError{Kind: kind, Op: op, PageID: pageID, URL: reqURL, StatusCode: status, Err: fmt.Errorf("empty response body")}
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.RemoteCallsTotal.WithLabelValues(op, "decode_error").Inc()
		return &entity.RemoteError{Kind: kind, Op: op, PageID: pageID, URL: reqURL, StatusCode: status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, reqURL, pageID string, payload []byte, kind error) ([]byte, int, error) {
	fail := func(status int, err error) ([]byte, int, error) {
		outcome := "error"
		if status != 0 {
			outcome = fmt.Sprintf("status_%d", status)
		}
		metrics.RemoteCallsTotal.WithLabelValues(op, outcome).Inc()
		return nil, status, &entity.RemoteError{
			Kind:       kind,
			Op:         op,
			PageID:     pageID,
			URL:        reqURL,
			StatusCode: status,
			Hint:       entity.HintForStatus(status),
			Err:        err,
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(0, fmt.Errorf("rate limiter: %w", err))
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fail(0, fmt.Errorf("build request: %w", err))
	}
	if c.email != "" && c.apiToken != "" {
		req.SetBasicAuth(c.email, c.apiToken)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if op == "download" {
		req.Header.Set("Accept", "*/*")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, fmt.Errorf("http %s failed: %w", strings.ToLower(method), err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > c.maxBodyBytes {
		return fail(resp.StatusCode, fmt.Errorf("response body exceeds limit of %d bytes", c.maxBodyBytes))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status))
	}

	metrics.RemoteCallsTotal.WithLabelValues(op, "ok").Inc()
	c.logger.Debug("remote call",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", reqURL),
		zap.Int("status", resp.StatusCode),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return data, resp.StatusCode, nil
}
