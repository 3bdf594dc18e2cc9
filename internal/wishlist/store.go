// Package wishlist はサーバーのウィッシュリストを写すストアを提供する。
//
// 追加はバックエンド呼び出し後に一覧全体を取り直し、削除はバックエンド呼び出し後に
// ローカルの一覧から取り除くだけで取り直さない。この非対称な整合性は意図したもの。
package wishlist

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/model"
)

const storeName = "wishlist"

// 操作名
const (
	OpFetch  = "fetch"
	OpAdd    = "add"
	OpRemove = "remove"
	OpClear  = "clear"
)

// Backend はウィッシュリストストアが使用するバックエンドAPI。
// *api.WishlistAPI がこれを満たす。
type Backend interface {
	Get(ctx context.Context) ([]model.WishlistProduct, error)
	Add(ctx context.Context, productID string) error
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

// Snapshot はある時点のウィッシュリスト状態のコピー。
type Snapshot struct {
	Items   []model.WishlistProduct `json:"items"`
	Loading bool                    `json:"isLoading"`
}

// Store はウィッシュリストストア。
type Store struct {
	backend Backend
	logger  *slog.Logger
	metrics metrics.MetricsCollector

	mu       sync.RWMutex
	items    []model.WishlistProduct
	inflight int
	issued   uint64
	applied  uint64
}

// NewStore は空のウィッシュリストストアを生成する。
func NewStore(backend Backend, logger *slog.Logger, m metrics.MetricsCollector) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		logger:  logger,
		metrics: metrics.OrNop(m),
		items:   []model.WishlistProduct{},
	}
}

// Snapshot は現在の状態を返す。
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Items: cloneItems(s.items), Loading: s.inflight > 0}
}

// Items は現在の一覧を返す。
func (s *Store) Items() []model.WishlistProduct {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// IsInWishlist は直近に完了した操作の結果にproductIDが含まれるかを返す。
// 実行中の操作の結果は反映しない。
func (s *Store) IsInWishlist(productID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == productID {
			return true
		}
	}
	return false
}

func (s *Store) begin() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	return func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}
}

// nextSeq は取得・更新ごとの連番を発行する。
func (s *Store) nextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

func (s *Store) record(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.RecordStoreOperation(storeName, op, result)
}

// FetchWishlist は一覧を取得する。失敗は無視する。
func (s *Store) FetchWishlist(ctx context.Context) {
	done := s.begin()
	defer done()
	s.fetchSwallowed(ctx)
}

func (s *Store) fetchSwallowed(ctx context.Context) {
	if err := s.refresh(ctx); err != nil {
		s.metrics.RecordStoreOperation(storeName, OpFetch, "swallowed")
		s.logger.Debug("ウィッシュリストの取得に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// Refresh はFetchWishlistと同じ処理を行い、バックエンドのエラーを返す。
func (s *Store) Refresh(ctx context.Context) error {
	done := s.begin()
	defer done()
	return s.refresh(ctx)
}

func (s *Store) refresh(ctx context.Context) error {
	seq := s.nextSeq()
	items, err := s.backend.Get(ctx)
	if err != nil {
		return err
	}
	s.record(OpFetch, nil)

	s.mu.Lock()
	stale := seq <= s.applied
	if !stale {
		s.applied = seq
		s.items = cloneItems(items)
	}
	s.mu.Unlock()

	if stale {
		s.metrics.RecordStaleResponse(storeName, OpFetch)
	}
	return nil
}

// AddToWishlist は商品を追加し、成功後に一覧全体を取り直す。
// 取り直しの失敗は無視する。
func (s *Store) AddToWishlist(ctx context.Context, productID string) error {
	done := s.begin()
	defer done()

	err := s.backend.Add(ctx, productID)
	s.record(OpAdd, err)
	if err != nil {
		return model.WithFallback(err, "Failed to add to wishlist")
	}
	s.fetchSwallowed(ctx)
	return nil
}

// RemoveFromWishlist は商品を削除し、取り直さずにローカルの一覧から取り除く。
func (s *Store) RemoveFromWishlist(ctx context.Context, productID string) error {
	done := s.begin()
	defer done()
	seq := s.nextSeq()

	err := s.backend.Remove(ctx, productID)
	s.record(OpRemove, err)
	if err != nil {
		return model.WithFallback(err, "Failed to remove from wishlist")
	}

	s.mu.Lock()
	kept := make([]model.WishlistProduct, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.applied = max(s.applied, seq)
	s.mu.Unlock()
	return nil
}

// ClearWishlist は一覧を空にする。
func (s *Store) ClearWishlist(ctx context.Context) error {
	done := s.begin()
	defer done()
	seq := s.nextSeq()

	err := s.backend.Clear(ctx)
	s.record(OpClear, err)
	if err != nil {
		return model.WithFallback(err, "Failed to clear wishlist")
	}

	s.mu.Lock()
	s.items = []model.WishlistProduct{}
	s.applied = max(s.applied, seq)
	s.mu.Unlock()
	return nil
}

// Reset はバックエンドを呼び出さずにローカルの一覧を破棄する。ログアウト時に使用する。
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.applied = s.issued
	s.items = []model.WishlistProduct{}
}

func cloneItems(items []model.WishlistProduct) []model.WishlistProduct {
	cp := make([]model.WishlistProduct, len(items))
	copy(cp, items)
	return cp
}
