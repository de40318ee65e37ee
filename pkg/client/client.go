// Package client - Go-клиент REST API SyncDeck: сессия с токеном, кеш запросов,
// редактор задачи с откатом локальных правок и локальная выгрузка CSV.
package client

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

	"syncdeck/internal/logger"

	"go.uber.org/zap"
)

const defaultLoginTimeout = 10 * time.Second

type Client struct {
	baseURL      string
	httpClient   *http.Client
	session      *Session
	cache        *QueryCache
	loginTimeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithSession(s *Session) Option {
	return func(c *Client) {
		c.session = s
	}
}

func WithLoginTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.loginTimeout = d
		}
	}
}

func WithQueryCache(qc *QueryCache) Option {
	return func(c *Client) {
		c.cache = qc
	}
}

// New создаёт клиент. Таймаутов на запросы нет, кроме входа:
// время жизни запроса задаёт ctx вызывающего.
func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{},
		loginTimeout: defaultLoginTimeout,
		cache:        NewQueryCache(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.session == nil {
		c.session, _ = NewSession(NewMemoryTokenStore())
	}
	return c
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) Cache() *QueryCache {
	return c.cache
}

// get читает JSON через кеш запросов
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	body, err := c.cache.Get(ctx, target, func(ctx context.Context) ([]byte, error) {
		return c.raw(ctx, http.MethodGet, target, nil, "")
	})
	if err != nil {
		return err
	}
	return decode(body, out)
}

// mutate отправляет JSON и сбрасывает кеш по переданным префиксам, только если запрос прошёл
func (c *Client) mutate(ctx context.Context, method, path string, in, out any, invalidate ...string) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("сериализация запроса: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, body, contentType, out, invalidate...)
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, out any, invalidate ...string) error {
	resp, err := c.raw(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	c.cache.Invalidate(invalidate...)
	if out == nil {
		return nil
	}
	return decode(resp, out)
}

func (c *Client) raw(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	data, _, err := c.do(ctx, method, path, body, contentType)
	return data, err
}

// do выполняет один запрос без повторов и возвращает тело и заголовки успешного ответа
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("создание запроса: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		ce := transportError(ctx, err)
		if ce.Kind != KindCanceled {
			logger.Warn("Client: Запрос не выполнен",
				zap.String("method", method),
				zap.String("path", path),
				zap.Error(err))
		}
		return nil, nil, ce
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, transportError(ctx, err)
	}

	logger.Debug("Client: Ответ получен",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("ms", time.Since(start)))

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, nil, responseError(resp.StatusCode, data)
	}
	return data, resp.Header, nil
}

func decode(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("разбор ответа: %w", err)
	}
	return nil
}
