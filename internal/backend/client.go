// Package backend is the HTTP client for the menuboard server.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/errors"
	"github.com/julianstephens/menuboard/internal/logger"
	"github.com/julianstephens/menuboard/internal/models"
	"github.com/julianstephens/menuboard/internal/rating"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.ErrNotFound

// StatusError is an unexpected HTTP status from the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned status %d", e.Code)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: constants.DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// MenuInput is the writable subset of a menu item.
type MenuInput struct {
	Name        string          `json:"name"`
	Ingredients string          `json:"ingredients"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image,omitempty"`
	OutOfStock  bool            `json:"out_of_stock"`
}

// InputFrom copies the writable fields of m.
func InputFrom(m models.MenuItem) MenuInput {
	return MenuInput{
		Name:        m.Name,
		Ingredients: m.Ingredients,
		Price:       m.Price,
		Image:       m.Image,
		OutOfStock:  m.OutOfStock,
	}
}

func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if err := c.do(ctx, "list categories", http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	var out models.Category
	body := map[string]any{"category": map[string]string{"name": name}}
	err := c.do(ctx, "create category", http.MethodPost, "/categories", body, &out)
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, id, name string) (models.Category, error) {
	var out models.Category
	body := map[string]any{"category": map[string]string{"name": name}}
	err := c.do(ctx, "update category", http.MethodPut, "/categories/"+url.PathEscape(id), body, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, "delete category", http.MethodDelete, "/categories/"+url.PathEscape(id), nil, nil)
}

// ListMenuItems returns a category's menu items with their ratings. Each
// item's served aggregate is checked against the local computation.
func (c *Client) ListMenuItems(ctx context.Context, categoryID string) ([]models.MenuItem, error) {
	var out []models.MenuItem
	path := "/categories/" + url.PathEscape(categoryID) + "/menus"
	if err := c.do(ctx, "list menu items", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].CategoryID == "" {
			out[i].CategoryID = categoryID
		}
		rating.Reconcile(&out[i])
	}
	return out, nil
}

func (c *Client) ListOutOfStock(ctx context.Context) ([]models.MenuItem, error) {
	var out []models.MenuItem
	if err := c.do(ctx, "list out of stock", http.MethodGet, "/menus/out_of_stock", nil, &out); err != nil {
		return nil, err
	}
	for i := range out {
		rating.Reconcile(&out[i])
	}
	return out, nil
}

func (c *Client) GetMenuItem(ctx context.Context, id string) (models.MenuItem, error) {
	var out models.MenuItem
	if err := c.do(ctx, "get menu item", http.MethodGet, "/menus/"+url.PathEscape(id), nil, &out); err != nil {
		return models.MenuItem{}, err
	}
	rating.Reconcile(&out)
	return out, nil
}

func (c *Client) CreateMenuItem(ctx context.Context, categoryID string, in MenuInput) (models.MenuItem, error) {
	var out models.MenuItem
	path := "/categories/" + url.PathEscape(categoryID) + "/menus"
	err := c.do(ctx, "create menu item", http.MethodPost, path, map[string]any{"menu": in}, &out)
	return out, err
}

func (c *Client) UpdateMenuItem(ctx context.Context, id string, in MenuInput) (models.MenuItem, error) {
	var out models.MenuItem
	err := c.do(ctx, "update menu item", http.MethodPut, "/menus/"+url.PathEscape(id), map[string]any{"menu": in}, &out)
	return out, err
}

func (c *Client) DeleteMenuItem(ctx context.Context, id string) error {
	return c.do(ctx, "delete menu item", http.MethodDelete, "/menus/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListRatings(ctx context.Context, menuID string) ([]models.Rating, error) {
	var out []models.Rating
	path := "/menus/" + url.PathEscape(menuID) + "/ratings"
	if err := c.do(ctx, "list ratings", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRating submits a star rating. Stars outside 1..5 are rejected
// without a request.
func (c *Client) CreateRating(ctx context.Context, menuID string, stars int) (models.Rating, error) {
	if !models.ValidStars(stars) {
		return models.Rating{}, errors.Invalid("stars", "must be between 1 and 5")
	}
	var out models.Rating
	path := "/menus/" + url.PathEscape(menuID) + "/ratings"
	body := map[string]any{"rating": map[string]int{"stars": stars}}
	err := c.do(ctx, "create rating", http.MethodPost, path, body, &out)
	return out, err
}

func (c *Client) AverageRating(ctx context.Context, menuID string) (float64, error) {
	var out struct {
		AverageRating float64 `json:"average_rating"`
	}
	path := "/menus/" + url.PathEscape(menuID) + "/average_rating"
	if err := c.do(ctx, "average rating", http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return out.AverageRating, nil
}

// do sends one request. Transport failures and unexpected statuses come
// back as network failures; 422 as a validation failure; 404 as ErrNotFound.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(constants.RequestIDHeader, requestID)

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Backend request failed", "op", op, "request_id", requestID, "error", err)
		return errors.Network(op, err)
	}
	defer res.Body.Close()
	logger.Debug("Backend request", "op", op, "method", method, "path", path,
		"status", res.StatusCode, "request_id", requestID, "duration", time.Since(start))

	switch {
	case res.StatusCode == http.StatusUnprocessableEntity:
		var payload struct {
			Errors []string `json:"errors"`
		}
		_ = json.NewDecoder(res.Body).Decode(&payload)
		return &errors.ValidationError{Msg: strings.Join(payload.Errors, ", ")}
	case res.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case res.StatusCode < 200 || res.StatusCode > 299:
		data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return errors.Network(op, &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(data))})
	}

	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Network(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
