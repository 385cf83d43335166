package api

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wellmeet/internal/config"
	"wellmeet/internal/metrics"
	"wellmeet/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client talks to the restaurant, reservation and notification services.
type Client struct {
	baseURL    string
	apiKey     string
	apiExtra   string
	memberID   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

func NewClient(cfg config.UpstreamConfig, logger *zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiExtra:   cfg.APIExtra,
		memberID:   cfg.MemberID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 5
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return c
}

// UseRedisCache configures optional Redis caching for free-text recommendations.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

type recommendRequest struct {
	Query string `json:"query"`
}

// Recommend sends the query verbatim and returns candidates in the order the
// service ranked them.
func (c *Client) Recommend(ctx context.Context, query string) ([]models.Candidate, error) {
	cacheKey := "recommend:" + hashQuery(query)
	var out []models.Candidate

	if c.readCache(ctx, cacheKey, &out) {
		return out, nil
	}

	if err := c.doJSON(ctx, "recommend", http.MethodPost, "/recommend", recommendRequest{Query: query}, &out); err != nil {
		return nil, err
	}
	if len(out) > 0 {
		c.writeCache(ctx, cacheKey, out)
	}
	return out, nil
}

func (c *Client) CreateReservation(ctx context.Context, req models.ReservationRequest) (*models.BookingRecord, error) {
	var rec models.BookingRecord
	if err := c.doJSON(ctx, "reservation_create", http.MethodPost, "/reservation", req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) GetReservation(ctx context.Context, id string) (*models.BookingRecord, error) {
	var rec models.BookingRecord
	if err := c.doJSON(ctx, "reservation_get", http.MethodGet, "/reservation/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) ListReservations(ctx context.Context) ([]models.BookingRecord, error) {
	var out []models.BookingRecord
	if err := c.doJSON(ctx, "reservation_list", http.MethodGet, "/reservation", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateReservation(ctx context.Context, id string, req models.ReservationRequest) (*models.BookingRecord, error) {
	var rec models.BookingRecord
	if err := c.doJSON(ctx, "reservation_update", http.MethodPut, "/reservation/"+url.PathEscape(id), req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

type statusUpdate struct {
	Status string `json:"status"`
}

func (c *Client) UpdateReservationStatus(ctx context.Context, id, status string) (*models.BookingRecord, error) {
	var rec models.BookingRecord
	if err := c.doJSON(ctx, "reservation_status", http.MethodPut, "/reservation/"+url.PathEscape(id), statusUpdate{Status: status}, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	if err := c.doJSON(ctx, "notifications_list", http.MethodGet, "/notifications", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.doJSON(ctx, "notifications_read", http.MethodPut, "/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.doJSON(ctx, "notifications_read_all", http.MethodPut, "/notifications/read-all", nil, nil)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) endpoint(path string) string {
	u := c.baseURL + path
	if c.memberID != "" {
		u += "?memberId=" + url.QueryEscape(c.memberID)
	}
	return u
}

func (c *Client) doJSON(ctx context.Context, name, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &TransportError{Endpoint: name, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", name, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.addHeaders(req)

	start := time.Now()
	err = c.do(name, req, out)
	result := "ok"
	switch {
	case IsTransportError(err):
		result = "transport_error"
	case err != nil:
		result = "service_error"
	}
	metrics.IncUpstream(name, result)

	c.logger.Debug().
		Str("endpoint", name).
		Str("method", method).
		Str("result", result).
		Dur("duration", time.Since(start)).
		Msg("Upstream request")

	return err
}

func (c *Client) do(name string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Endpoint: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ServiceError{Endpoint: name, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{Endpoint: name, Message: err.Error()}
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	if c.apiExtra != "" {
		req.Header.Set("x-api-extra", c.apiExtra)
	}
}

// hashQuery keys the cache on the exact query text sent upstream.
func hashQuery(q string) string {
	sum := sha1.Sum([]byte(q))
	return hex.EncodeToString(sum[:])
}
