// Package gallery is the HTTP client of the public bases backend.
//
// The client never caches or refreshes identity tokens: every authenticated
// call receives the bearer token from its caller. All returned errors wrap one
// of the apperror kinds.
package gallery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"base_gallery/internal/apperror"
	"base_gallery/internal/domain/models"
	"base_gallery/internal/lib/logger/sl"
	"base_gallery/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

const (
	basesPath   = "/public-bases"
	monthsPath  = "/public-bases/months"
	maxBodySize = 10 << 20
)

type Options struct {
	Timeout         time.Duration // ceiling for requests without a deadline, 0 = none
	UploadTimeout   time.Duration // ceiling for create and update, replaces Timeout
	LegacyEnvelopes bool          // accept pre-envelope response shapes
	MaxRetries      uint64        // retries of idempotent reads on network errors
	InitialInterval time.Duration
	HTTPClient      *http.Client
}

type Client struct {
	log             *slog.Logger
	baseURL         string
	http            *http.Client
	timeout         time.Duration
	uploadTimeout   time.Duration
	legacyEnvelopes bool
	maxRetries      uint64
	initialInterval time.Duration
}

func New(log *slog.Logger, baseURL string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	initial := opts.InitialInterval
	if initial <= 0 {
		initial = 200 * time.Millisecond
	}

	return &Client{
		log:             log,
		baseURL:         strings.TrimRight(baseURL, "/"),
		http:            httpClient,
		timeout:         opts.Timeout,
		uploadTimeout:   opts.UploadTimeout,
		legacyEnvelopes: opts.LegacyEnvelopes,
		maxRetries:      opts.MaxRetries,
		initialInterval: initial,
	}
}

// List загружает одну страницу баз
func (c *Client) List(ctx context.Context, params models.ListParams) (*models.ItemPage, error) {
	const op = "client.gallery.List"

	query := url.Values{}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Sort != "" {
		query.Set("sort", params.Sort)
	}
	if params.Month != "" {
		query.Set("month", params.Month)
	}

	var page *models.ItemPage
	err := c.withRetry(ctx, func() error {
		body, err := c.do(ctx, request{method: http.MethodGet, route: basesPath, path: basesPath, query: query})
		if err != nil {
			return err
		}

		page, err = c.decodeList(body, params.Page)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// Get загружает одну базу по ID
func (c *Client) Get(ctx context.Context, id models.ItemID) (*models.Item, error) {
	const op = "client.gallery.Get"

	if id == "" {
		return nil, fmt.Errorf("%s: %w", op, apperror.Validation("item id is required"))
	}

	var item *models.Item
	err := c.withRetry(ctx, func() error {
		body, err := c.do(ctx, request{method: http.MethodGet, route: basesPath + "/:id", path: itemPath(id)})
		if err != nil {
			return err
		}

		item, err = decodeItem(body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

// Create публикует новую базу от имени владельца токена
func (c *Client) Create(ctx context.Context, payload models.Payload, token string) (*models.Item, error) {
	const op = "client.gallery.Create"

	if err := requireToken(token); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	payload = payload.Trimmed()
	if err := payload.ValidateCreate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperror.Validation(err.Error()))
	}

	item, err := c.upload(ctx, http.MethodPost, basesPath, basesPath, payload, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

// Update заменяет поля базы; изображение отправляется только если выбрано новое
func (c *Client) Update(ctx context.Context, id models.ItemID, payload models.Payload, token string) (*models.Item, error) {
	const op = "client.gallery.Update"

	if err := requireToken(token); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if id == "" {
		return nil, fmt.Errorf("%s: %w", op, apperror.Validation("item id is required"))
	}

	payload = payload.Trimmed()
	if err := payload.ValidateUpdate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperror.Validation(err.Error()))
	}

	item, err := c.upload(ctx, http.MethodPut, basesPath+"/:id", itemPath(id), payload, token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

// Remove удаляет базу
func (c *Client) Remove(ctx context.Context, id models.ItemID, token string) error {
	const op = "client.gallery.Remove"

	if err := requireToken(token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if id == "" {
		return fmt.Errorf("%s: %w", op, apperror.Validation("item id is required"))
	}

	body, err := c.do(ctx, request{method: http.MethodDelete, route: basesPath + "/:id", path: itemPath(id), token: token})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if _, err := decodeEnvelope(body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListMonthBuckets возвращает месяцы, за которые есть базы
func (c *Client) ListMonthBuckets(ctx context.Context) ([]models.MonthBucket, error) {
	const op = "client.gallery.ListMonthBuckets"

	var buckets []models.MonthBucket
	err := c.withRetry(ctx, func() error {
		body, err := c.do(ctx, request{method: http.MethodGet, route: monthsPath, path: monthsPath})
		if err != nil {
			return err
		}

		env, err := decodeEnvelope(body)
		if err != nil {
			return err
		}

		buckets = nil
		if err := decodeArray(env.Data, &buckets); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buckets, nil
}

func (c *Client) upload(ctx context.Context, method, route, path string, payload models.Payload, token string) (*models.Item, error) {
	body, contentType, err := multipartBody(payload)
	if err != nil {
		return nil, err
	}

	if c.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.uploadTimeout)
		defer cancel()
	}

	resp, err := c.do(ctx, request{
		method:      method,
		route:       route,
		path:        path,
		body:        body,
		contentType: contentType,
		token:       token,
	})
	if err != nil {
		return nil, err
	}

	return decodeItem(resp)
}

func multipartBody(payload models.Payload) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := [][2]string{{"name", payload.Title}, {"link", payload.Link}}
	if payload.OwnerID != "" {
		fields = append(fields, [2]string{"clerkUserId", payload.OwnerID})
	}

	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	if payload.Image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(payload.Image.Filename)))
		h.Set("Content-Type", payload.Image.ContentType())

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(payload.Image.Content); err != nil {
			return nil, "", fmt.Errorf("write image part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}

	return buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

type request struct {
	method      string
	route       string // path template used as metrics label
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	token       string
}

func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, apperror.Network(err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	log := c.log.With(
		slog.String("method", r.method),
		slog.String("route", r.route),
		slog.String("request_id", requestID),
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ClientRequestDuration.WithLabelValues(r.method, r.route).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClientRequestsTotal.WithLabelValues(r.method, r.route, "error").Inc()
		log.Warn("request failed", sl.Err(err))

		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperror.Network(errors.New("request timed out"))
		}
		return nil, apperror.Network(err)
	}
	defer resp.Body.Close()

	metrics.ClientRequestsTotal.WithLabelValues(r.method, r.route, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		log.Warn("failed to read response body", sl.Err(err))
		return nil, apperror.Network(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &errBody)

		log.Info("request rejected", slog.Int("status", resp.StatusCode), slog.String("message", errBody.Message))
		return nil, apperror.FromStatus(resp.StatusCode, errBody.Message)
	}

	log.Debug("request completed", slog.Int("status", resp.StatusCode))

	return body, nil
}

func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	if c.maxRetries == 0 {
		return fn()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)

	err := backoff.Retry(func() error {
		err := fn()
		if err != nil && !errors.Is(err, apperror.ErrNetwork) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return apperror.Network(err)
	}

	return err
}

func requireToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return apperror.Auth("authentication token is required")
	}
	return nil
}

func itemPath(id models.ItemID) string {
	return basesPath + "/" + url.PathEscape(id.String())
}
