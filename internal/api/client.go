// Package api はストアフロントのバックエンドREST APIのクライアントを提供する。
//
// すべてのレスポンスは {success, data, error, message} 形式のエンベロープで返される。
// ベアラートークンは呼び出しのたびに永続ストレージから読み出す。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/model"
)

const (
	// maxResponseBytes はレスポンスボディの読み取り上限。
	maxResponseBytes = 10 << 20
	userAgent        = "Storefront/1.0 Client"
)

// TokenSource はベアラートークンの取得元。
// *storage.Tokens がこれを満たす。
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Config はClientの設定。
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // 1秒あたりのリクエスト数。0以下で無制限
	RateBurst int
}

// Client はバックエンドAPIの低レベルクライアント。
// リソースごとのラッパー（AuthAPI、CartAPI など）から利用する。
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    metrics.MetricsCollector
}

// NewClient はClientの新しいインスタンスを生成する。
// tokensがnilの場合はAuthorizationヘッダーを付与しない。
func NewClient(cfg Config, tokens TokenSource, logger *slog.Logger, m metrics.MetricsCollector) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL scheme: %q", base.Scheme)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Jar: jar},
		baseURL:    strings.TrimRight(base.String(), "/"),
		tokens:     tokens,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
		metrics:    metrics.OrNop(m),
	}, nil
}

type requestIDKey struct{}

// WithRequestID はバックエンドへ伝搬するリクエストIDをコンテキストに設定する。
// 設定されていない場合は呼び出しごとに新しいIDを生成する。
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// envelope はバックエンドの共通レスポンス形式。
// 一覧エンドポイントはページング情報も含む。
type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Message    string          `json:"message"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Total      int             `json:"total"`
	TotalPages int             `json:"totalPages"`
}

func (e *envelope) serverMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// hasData はdataフィールドに値が含まれているかを返す。
func (e *envelope) hasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

// request は1回のAPI呼び出しの内容。
type request struct {
	method   string
	path     string
	endpoint string // メトリクスのラベル。IDを含まない
	query    url.Values
	body     any
}

// do はリクエストを送信し、エンベロープを返す。
// 通信失敗・エラーステータス・success=false はすべて *model.APIError として返す。
func (c *Client) do(ctx context.Context, r request) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, model.NewTransportError(err)
	}

	var bodyReader io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := requestIDFrom(ctx)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			// トークンが読めなくても匿名として呼び出しは続行する
			c.logger.Warn("アクセストークンの読み取りに失敗しました",
				slog.String("error", err.Error()),
			)
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordAPITransportFailure(r.endpoint)
		c.logger.Warn("バックエンドAPIの呼び出しに失敗しました",
			slog.String("endpoint", r.endpoint),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	duration := time.Since(start)
	c.metrics.RecordAPIRequest(r.endpoint, resp.StatusCode, duration)
	c.logger.Debug("api_request",
		slog.String("method", r.method),
		slog.String("path", r.path),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", duration.Milliseconds()),
		slog.String("request_id", requestID),
	)
	if err != nil {
		return nil, model.NewTransportError(err)
	}

	failed := resp.StatusCode >= http.StatusBadRequest

	if len(bytes.TrimSpace(raw)) == 0 {
		if failed {
			return nil, model.NewServerError(resp.StatusCode, "")
		}
		return &envelope{Success: true}, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if failed {
			// プロキシのエラーページなどJSON以外の本文
			return nil, model.NewServerError(resp.StatusCode, "")
		}
		return nil, model.NewDecodeError(resp.StatusCode, err)
	}

	if failed || !env.Success {
		return nil, model.NewServerError(resp.StatusCode, env.serverMessage())
	}
	return &env, nil
}

// exec はレスポンスのdataを使用しない呼び出しを行う。
func (c *Client) exec(ctx context.Context, r request) error {
	_, err := c.do(ctx, r)
	return err
}

// call はレスポンスのdataをTにデコードして返す。
// dataが含まれない場合は nil, nil を返す。
func call[T any](ctx context.Context, c *Client, r request) (*T, error) {
	env, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	return decodeData[T](env)
}

// callList は配列のdataをデコードして返す。dataが含まれない場合は空スライスを返す。
func callList[T any](ctx context.Context, c *Client, r request) ([]T, error) {
	items, err := call[[]T](ctx, c, r)
	if err != nil {
		return nil, err
	}
	if items == nil {
		return []T{}, nil
	}
	return *items, nil
}

func decodeData[T any](env *envelope) (*T, error) {
	if !env.hasData() {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, model.NewDecodeError(http.StatusOK, err)
	}
	return &v, nil
}

// Page は一覧エンドポイントのページング付きレスポンス。
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// callPage はページング付き一覧を取得する。
func callPage[T any](ctx context.Context, c *Client, r request) (*Page[T], error) {
	env, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}
	items, err := decodeData[[]T](env)
	if err != nil {
		return nil, err
	}
	p := &Page[T]{
		Items:      []T{},
		Page:       env.Page,
		Limit:      env.Limit,
		Total:      env.Total,
		TotalPages: env.TotalPages,
	}
	if items != nil {
		p.Items = *items
	}
	return p, nil
}

// errEmptyResponse はdataが必須の呼び出しでdataが返らなかった場合のエラー。
var errEmptyResponse = errors.New("response data is empty")

// require はdataが必須の呼び出しでnilをDECODE_ERRORに変換する。
func require[T any](v *T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, model.NewDecodeError(http.StatusOK, errEmptyResponse)
	}
	return v, nil
}

// resourcePath はパスの末尾にIDをエスケープして連結する。
func resourcePath(prefix, id string, suffix ...string) string {
	p := prefix + "/" + url.PathEscape(id)
	for _, s := range suffix {
		p += "/" + s
	}
	return p
}
