package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"review-analyzer/internal/domain"
	"review-analyzer/internal/infra/metrics"
)

// UnknownTitle возвращается, если API ответило без названия товара.
const UnknownTitle = "Unknown Product"

// Config описывает параметры API источника отзывов.
type Config struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	TitleTimeout time.Duration
	// PageInterval задаёт минимальную паузу между запросами страниц. Ноль отключает ограничение.
	PageInterval time.Duration
}

// Client обращается к публичному API магазина.
type Client struct {
	http      *http.Client
	titleHTTP *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
}

var _ domain.ProductInfo = (*Client)(nil)

// NewClient создаёт HTTP-клиента источника.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	titleTimeout := cfg.TitleTimeout
	if titleTimeout <= 0 {
		titleTimeout = 5 * time.Second
	}
	limit := rate.Inf
	if cfg.PageInterval > 0 {
		limit = rate.Every(cfg.PageInterval)
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		titleHTTP: &http.Client{Timeout: titleTimeout},
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

type commentsResponse struct {
	Data struct {
		Comments []struct {
			Body string `json:"body"`
		} `json:"comments"`
	} `json:"data"`
}

type productResponse struct {
	Data struct {
		Product struct {
			TitleFa string `json:"title_fa"`
		} `json:"product"`
	} `json:"data"`
}

// errStatus сигнализирует об ответе, отличном от 200.
type errStatus struct {
	code int
}

func (e errStatus) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// CommentsPage возвращает тексты отзывов одной страницы как есть.
// Для ответа со статусом, отличным от 200, возвращает ok=false без ошибки.
func (c *Client) CommentsPage(ctx context.Context, productID domain.ProductID, page int) (bodies []string, ok bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}
	endpoint := fmt.Sprintf("%s/product/%d/comments/?page=%d", c.baseURL, productID, page)
	var payload commentsResponse
	start := time.Now()
	err = c.getJSON(ctx, c.http, endpoint, &payload)
	metrics.ObserveNetworkRequest("source", "comments_page", "comments", start, err)
	var statusErr errStatus
	if errors.As(err, &statusErr) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	bodies = make([]string, 0, len(payload.Data.Comments))
	for _, comment := range payload.Data.Comments {
		bodies = append(bodies, comment.Body)
	}
	return bodies, true, nil
}

// ProductTitle возвращает название товара или синтетическое название при любой ошибке.
func (c *Client) ProductTitle(ctx context.Context, productID domain.ProductID) string {
	endpoint := fmt.Sprintf("%s/product/%d/", c.baseURL, productID)
	var payload productResponse
	start := time.Now()
	err := c.getJSON(ctx, c.titleHTTP, endpoint, &payload)
	metrics.ObserveNetworkRequest("source", "product_title", "product", start, err)
	if err != nil {
		return domain.FallbackTitle(productID)
	}
	title := strings.TrimSpace(payload.Data.Product.TitleFa)
	if title == "" {
		return UnknownTitle
	}
	return title
}

func (c *Client) getJSON(ctx context.Context, client *http.Client, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return errStatus{code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
