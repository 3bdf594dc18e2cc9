// Package refresh はログイン中のセッション・カート・ウィッシュリストを
// 定期的にバックエンドと同期するバックグラウンドワーカーを提供する。
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/session"
)

// SessionSource は同期対象のセッション。*session.Store がこれを満たす。
// Revalidate は401・403の場合だけセッションを破棄し、それ以外の失敗ではセッションを保持する。
type SessionSource interface {
	IsAuthenticated() bool
	Revalidate(ctx context.Context) error
	Subscribe(fn func(session.Change))
}

// Refresher はエラーを返す再取得操作。*cart.Store と *wishlist.Store がこれを満たす。
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Worker はティッカーで定期同期を行うワーカー。
type Worker struct {
	session  SessionSource
	cart     Refresher
	wishlist Refresher
	logger   *slog.Logger
	metrics  metrics.MetricsCollector
	now      func() time.Time

	mu    sync.Mutex
	state state
}

// NewWorker はWorkerの新しいインスタンスを生成する。
// ログイン・会員登録で認証済みになると停止・バックオフ状態を解除する。
func NewWorker(sess SessionSource, cart, wishlist Refresher, logger *slog.Logger, m metrics.MetricsCollector) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		session:  sess,
		cart:     cart,
		wishlist: wishlist,
		logger:   logger,
		metrics:  metrics.OrNop(m),
		now:      time.Now,
	}
	sess.Subscribe(func(c session.Change) {
		if c.Prev.IsAuthenticated || !c.Next.IsAuthenticated {
			return
		}
		if c.Op == session.OpLogin || c.Op == session.OpRegister {
			w.mu.Lock()
			w.state.applySuccess()
			w.mu.Unlock()
		}
	})
	return w
}

// Start は指定間隔のティッカーで同期を実行する。
// 起動直後の同期はBootstrapが行うため、最初の実行は1間隔後になる。
// コンテキストがキャンセルされるまで実行を継続する。
func (w *Worker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("同期ワーカーを開始しました",
		slog.Duration("interval", interval),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("同期ワーカーを停止しました")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce は同期を1回実行し、その結果を返す。
// 未ログイン・停止中・バックオフ中はバックエンドを呼び出さない。
func (w *Worker) RunOnce(ctx context.Context) string {
	if !w.session.IsAuthenticated() {
		w.metrics.RecordSyncRun("skipped")
		return "skipped"
	}

	w.mu.Lock()
	stopped := w.state.stopped
	deferred := !w.state.nextRunAt.IsZero() && w.now().Before(w.state.nextRunAt)
	w.mu.Unlock()
	if stopped {
		w.metrics.RecordSyncRun("stopped")
		return "stopped"
	}
	if deferred {
		w.metrics.RecordSyncRun("deferred")
		return "deferred"
	}

	start := w.now()
	result, err := w.sync(ctx)

	w.mu.Lock()
	switch result {
	case ResultOK:
		w.state.applySuccess()
	case ResultStop:
		w.state.applyStop(err.Error())
	case ResultBackoff:
		w.state.applyBackoff(w.now(), err.Error())
	default:
		w.state.applyRetry(err.Error())
	}
	consecutive := w.state.consecutiveErrors
	next := w.state.nextRunAt
	w.mu.Unlock()

	switch result {
	case ResultOK:
		w.logger.Info("同期が完了しました",
			slog.Float64("duration_ms", float64(w.now().Sub(start).Milliseconds())),
		)
	case ResultStop:
		w.logger.Warn("認証エラーのため次のログインまで同期を停止します",
			slog.String("error", err.Error()),
		)
	case ResultBackoff:
		w.logger.Warn("同期にバックオフを適用します",
			slog.String("error", err.Error()),
			slog.Int("consecutive_errors", consecutive),
			slog.Time("next_run_at", next),
		)
	default:
		w.logger.Warn("同期に失敗しました。次の間隔で再試行します",
			slog.String("error", err.Error()),
		)
	}

	w.metrics.RecordSyncRun(result.String())
	return result.String()
}

// sync はプロフィールを検証してから、カートとウィッシュリストを並行して再取得する。
// 返すエラーは最も深刻な分類のもの。
func (w *Worker) sync(ctx context.Context) (Result, error) {
	if err := w.session.Revalidate(ctx); err != nil {
		return Classify(err), err
	}
	if !w.session.IsAuthenticated() {
		return ResultOK, nil
	}

	var cartErr, wishlistErr error
	var g errgroup.Group
	g.Go(func() error {
		cartErr = w.cart.Refresh(ctx)
		return nil
	})
	g.Go(func() error {
		wishlistErr = w.wishlist.Refresh(ctx)
		return nil
	})
	_ = g.Wait()

	cr, wr := Classify(cartErr), Classify(wishlistErr)
	result := worst(cr, wr)
	switch {
	case result == ResultOK:
		return ResultOK, nil
	case cr >= wr:
		return result, cartErr
	default:
		return result, wishlistErr
	}
}
