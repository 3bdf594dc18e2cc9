package refresh

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hitoshi/storefront/internal/model"
)

// Result はバックエンドの応答に基づく同期結果の分類。
type Result int

const (
	// ResultOK は同期成功。
	ResultOK Result = iota
	// ResultRetry は次のティックで再試行する（その他の4xxなど）。
	ResultRetry
	// ResultBackoff はバックオフが必要な失敗（429/5xx/通信失敗）。
	ResultBackoff
	// ResultStop は次のログインまで同期を停止する（401/403）。
	ResultStop
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultRetry:
		return "retry"
	case ResultBackoff:
		return "backoff"
	case ResultStop:
		return "stop"
	}
	return "unknown"
}

const (
	// initialBackoff は指数バックオフの初回遅延（30秒）。
	initialBackoff = 30 * time.Second
	// maxBackoff は指数バックオフの最大遅延（10分）。
	maxBackoff = 10 * time.Minute
)

// ClassifyHTTPStatus はHTTPステータスコードを同期結果に分類する。
func ClassifyHTTPStatus(statusCode int) Result {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return ResultOK
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ResultStop
	case statusCode == http.StatusTooManyRequests:
		return ResultBackoff
	case statusCode >= 500:
		return ResultBackoff
	default:
		return ResultRetry
	}
}

// Classify はストア操作のエラーを同期結果に分類する。
func Classify(err error) Result {
	if err == nil {
		return ResultOK
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ResultRetry
	}
	apiErr, ok := model.AsAPIError(err)
	if !ok {
		return ResultRetry
	}
	if apiErr.Code == model.ErrCodeTransport {
		return ResultBackoff
	}
	if apiErr.StatusCode == 0 {
		return ResultRetry
	}
	return ClassifyHTTPStatus(apiErr.StatusCode)
}

// worst は2つの結果のうち深刻な方を返す。
func worst(a, b Result) Result {
	return max(a, b)
}

// CalculateBackoff は連続エラー回数に基づいて指数バックオフ遅延を計算する。
// 初回30秒、2倍ずつ増加、最大10分。
func CalculateBackoff(consecutiveErrors int) time.Duration {
	delay := initialBackoff
	for i := 0; i < consecutiveErrors; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// state は同期ワーカーの再試行状態。
type state struct {
	stopped           bool
	consecutiveErrors int
	nextRunAt         time.Time
	lastError         string
}

// applyStop は次のログインまで同期を停止する。
func (s *state) applyStop(reason string) {
	s.stopped = true
	s.lastError = reason
}

// applyBackoff は連続エラー回数をインクリメントし、次回実行時刻を遅らせる。
func (s *state) applyBackoff(now time.Time, reason string) {
	s.consecutiveErrors++
	s.lastError = reason
	s.nextRunAt = now.Add(CalculateBackoff(s.consecutiveErrors - 1))
}

// applyRetry は次のティックで再試行する。
func (s *state) applyRetry(reason string) {
	s.lastError = reason
	s.nextRunAt = time.Time{}
}

// applySuccess は再試行状態をリセットする。
func (s *state) applySuccess() {
	*s = state{}
}
