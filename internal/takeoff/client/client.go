// Package client реализует по HTTP хранилище разметки, каталог и размеры страниц.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"takeoff/internal/takeoff/models"
	"takeoff/internal/takeoff/persist"
	"takeoff/internal/takeoff/render"
)

var ErrNotFound = errors.New("not found")

// StatusError: ответ сервиса с кодом ошибки.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream status %d", e.Code)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Message)
}

// ============================================================
// Client
// ============================================================

var _ persist.Store = (*Client)(nil)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient подменяет транспорт.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken добавляет заголовок Authorization к каждому запросу.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New создаёт клиент сервиса. baseURL включает префикс API, например http://host/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func takeoffPath(key models.DocumentKey) string {
	return fmt.Sprintf("/takeoffs/project/%d/file/%d", key.ProjectID, key.FileID)
}

// ============================================================
// Takeoffs
// ============================================================

// Load читает документ; отсутствующий документ даёт пустой.
func (c *Client) Load(ctx context.Context, key models.DocumentKey) (*models.Document, error) {
	var resp struct {
		Takeoff json.RawMessage `json:"takeoff"`
	}
	if err := c.do(ctx, http.MethodGet, takeoffPath(key), nil, &resp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.NewDocument(), nil
		}
		return nil, err
	}
	return models.DecodeOrDefault(resp.Takeoff), nil
}

// Save отправляет документ целиком.
func (c *Client) Save(ctx context.Context, key models.DocumentKey, doc *models.Document) error {
	return c.do(ctx, http.MethodPut, takeoffPath(key), doc, nil)
}

// ============================================================
// Catalog & pages
// ============================================================

func (c *Client) ListItems(ctx context.Context) ([]models.Item, error) {
	var resp struct {
		Items []models.Item `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/items", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// PageSet: размеры страниц исходного чертежа.
type PageSet struct {
	PageCount int               `json:"pageCount"`
	Pages     []render.PageInfo `json:"pages"`
}

func (c *Client) Pages(ctx context.Context, key models.DocumentKey) (PageSet, error) {
	var resp PageSet
	path := fmt.Sprintf("/files/project/%d/file/%d/pages", key.ProjectID, key.FileID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return PageSet{}, err
	}
	return resp, nil
}

// Source загружает размеры страниц и возвращает их как источник для планировщика.
func (c *Client) Source(ctx context.Context, key models.DocumentKey) (render.StaticSource, error) {
	set, err := c.Pages(ctx, key)
	if err != nil {
		return render.StaticSource{}, err
	}
	return render.StaticSource{Pages: set.Pages}, nil
}

// ============================================================
// Transport
// ============================================================

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
