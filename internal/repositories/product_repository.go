package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aaravmahajanofficial/productboard/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/productboard/internal/errors"
	"github.com/aaravmahajanofficial/productboard/internal/models"
	"github.com/aaravmahajanofficial/productboard/internal/validation"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 4 << 20

// ProductRepository is the products resource on the remote API.
type ProductRepository interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, payload models.ProductPayload) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, payload models.ProductPayload) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type productRepository struct {
	client      *http.Client
	productsURL string
	validator   *validation.Validator
}

// NewProductRepo talks to baseURL + "/api/products" through client.
func NewProductRepo(client *http.Client, baseURL string) ProductRepository {
	return &productRepository{
		client:      client,
		productsURL: strings.TrimRight(baseURL, "/") + "/api/products",
		validator:   validation.New(),
	}
}

func (r *productRepository) ListProducts(ctx context.Context) ([]models.Product, error) {

	body, status, err := r.do(ctx, http.MethodGet, r.productsURL, nil)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, appErrors.ServerError("Malformed product list from products API", status).WithError(err)
	}

	for _, p := range products {
		if err := r.validator.Product(p); err != nil {
			return nil, appErrors.ServerError("Malformed product list from products API", status).WithError(err)
		}
	}

	if products == nil {
		products = []models.Product{}
	}

	return products, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, payload models.ProductPayload) (*models.Product, error) {

	body, status, err := r.do(ctx, http.MethodPost, r.productsURL, payload)
	if err != nil {
		return nil, err
	}

	return r.decodeProduct(body, status)
}

func (r *productRepository) UpdateProduct(ctx context.Context, id string, payload models.ProductPayload) (*models.Product, error) {

	body, status, err := r.do(ctx, http.MethodPut, r.productURL(id), payload)
	if err != nil {
		return nil, err
	}

	return r.decodeProduct(body, status)
}

func (r *productRepository) DeleteProduct(ctx context.Context, id string) error {

	_, _, err := r.do(ctx, http.MethodDelete, r.productURL(id), nil)

	return err
}

func (r *productRepository) productURL(id string) string {
	return r.productsURL + "/" + url.PathEscape(id)
}

func (r *productRepository) decodeProduct(body []byte, status int) (*models.Product, error) {

	var product models.Product
	if err := json.Unmarshal(body, &product); err != nil {
		return nil, appErrors.ServerError("Malformed product from products API", status).WithError(err)
	}

	if err := r.validator.Product(product); err != nil {
		return nil, appErrors.ServerError("Malformed product from products API", status).WithError(err)
	}

	return &product, nil
}

// do sends one request and returns the body of a 2xx response. Anything else
// comes back as a TransportError or ServerError.
func (r *productRepository) do(ctx context.Context, method, target string, payload any) ([]byte, int, error) {

	ctx, _ = middleware.WithCorrelationID(ctx)
	logger := middleware.LoggerFromContext(ctx)
	endpoint := method + " " + target

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, appErrors.InternalError("Failed to encode request body").WithError(err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, 0, appErrors.InternalError("Failed to build request").WithDetail(endpoint).WithError(err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		logger.Warn("Products API unreachable", slog.String("endpoint", endpoint), slog.String("error", err.Error()))
		return nil, 0, appErrors.TransportError("Failed to reach products API").WithDetail(endpoint).WithError(err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, appErrors.TransportError("Failed to read products API response").WithDetail(endpoint).WithError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("Products API returned an error status",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
		)
		return nil, resp.StatusCode, appErrors.ServerError(fmt.Sprintf("Products API returned status %d", resp.StatusCode), resp.StatusCode).
			WithDetail(snippet(body))
	}

	return body, resp.StatusCode, nil
}

// snippet shortens body for error details without splitting a rune.
func snippet(body []byte) string {
	const limit = 200

	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}
