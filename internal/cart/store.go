// Package cart はサーバーのカートを写すカートストアを提供する。
//
// 更新はすべて悲観的で、ローカルの状態はバックエンドが返したカートでのみ置き換える。
// 同時に発行された呼び出しは発行順の連番で管理し、後から発行された呼び出しの
// レスポンスを適用済みであれば、それより古いレスポンスは破棄する。
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/model"
)

const storeName = "cart"

// 操作名
const (
	OpFetch  = "fetch"
	OpAdd    = "add"
	OpUpdate = "update_quantity"
	OpRemove = "remove"
	OpClear  = "clear"
)

// errMissingCart は更新系のレスポンスにカートが含まれていない場合のエラー。
var errMissingCart = errors.New("response does not contain a cart")

// Backend はカートストアが使用するバックエンドAPI。
// *api.CartAPI がこれを満たす。
type Backend interface {
	Get(ctx context.Context) (*model.Cart, error)
	Add(ctx context.Context, in model.AddToCartInput) (*model.Cart, error)
	UpdateQuantity(ctx context.Context, productID string, quantity int) (*model.Cart, error)
	Remove(ctx context.Context, productID string) (*model.Cart, error)
	Clear(ctx context.Context) error
}

// Snapshot はある時点のカート状態のコピー。
type Snapshot struct {
	Cart      *model.Cart `json:"cart"`
	ItemCount int         `json:"itemCount"`
	Loading   bool        `json:"isLoading"`
}

// Store はカートストア。
type Store struct {
	backend Backend
	logger  *slog.Logger
	metrics metrics.MetricsCollector

	mu       sync.RWMutex
	cart     *model.Cart
	inflight int
	issued   uint64 // 最後に発行した連番
	applied  uint64 // 最後に適用したレスポンスの連番
}

// NewStore は空のカートストアを生成する。
func NewStore(backend Backend, logger *slog.Logger, m metrics.MetricsCollector) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		logger:  logger,
		metrics: metrics.OrNop(m),
	}
}

// ItemCount はカート内の数量の合計を返す。カートがnilまたは空の場合は0。
func ItemCount(c *model.Cart) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Snapshot は現在の状態を返す。
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Cart:      cloneCart(s.cart),
		ItemCount: ItemCount(s.cart),
		Loading:   s.inflight > 0,
	}
}

// Cart は現在のカートを返す。未取得の場合はnil。
func (s *Store) Cart() *model.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCart(s.cart)
}

// ItemCount は現在のカートの数量の合計を返す。
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ItemCount(s.cart)
}

// begin はLoadingフラグを立てて連番を発行する。戻り値の関数でフラグを戻す。
func (s *Store) begin() (uint64, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	s.issued++
	return s.issued, func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}
}

// apply はseqのレスポンスが最新であればカートを置き換える。
func (s *Store) apply(op string, seq uint64, c *model.Cart) {
	s.mu.Lock()
	stale := seq <= s.applied
	if !stale {
		s.applied = seq
		s.cart = cloneCart(c)
	}
	s.mu.Unlock()

	if stale {
		s.metrics.RecordStaleResponse(storeName, op)
		s.logger.Debug("古いカートのレスポンスを破棄しました",
			slog.String("op", op),
			slog.Uint64("seq", seq),
		)
	}
}

func (s *Store) record(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.RecordStoreOperation(storeName, op, result)
}

// FetchCart はカートを取得する。失敗は未ログインまたはカート未作成として無視する。
func (s *Store) FetchCart(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.metrics.RecordStoreOperation(storeName, OpFetch, "swallowed")
		s.logger.Debug("カートの取得に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// Refresh はFetchCartと同じ処理を行い、バックエンドのエラーを返す。
// 失敗時も状態は変更しない。
func (s *Store) Refresh(ctx context.Context) error {
	seq, done := s.begin()
	defer done()

	c, err := s.backend.Get(ctx)
	if err != nil {
		return err
	}
	s.record(OpFetch, nil)
	if c != nil {
		s.apply(OpFetch, seq, c)
	}
	return nil
}

// AddToCart は商品をカートに追加する。
// 数量の検証は行わずバックエンドに委ねる。
func (s *Store) AddToCart(ctx context.Context, productID string, quantity int, variantID string) error {
	return s.mutate(ctx, OpAdd, "Failed to add to cart", func() (*model.Cart, error) {
		return s.backend.Add(ctx, model.AddToCartInput{
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
		})
	})
}

// UpdateQuantity は明細の数量を更新する。明細はproductIDで識別する。
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	return s.mutate(ctx, OpUpdate, "Failed to update cart", func() (*model.Cart, error) {
		return s.backend.UpdateQuantity(ctx, productID, quantity)
	})
}

// RemoveFromCart は明細を削除する。
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	return s.mutate(ctx, OpRemove, "Failed to remove item", func() (*model.Cart, error) {
		return s.backend.Remove(ctx, productID)
	})
}

func (s *Store) mutate(ctx context.Context, op, fallback string, call func() (*model.Cart, error)) error {
	seq, done := s.begin()
	defer done()

	c, err := call()
	if err == nil && c == nil {
		err = model.NewDecodeError(0, errMissingCart)
	}
	s.record(op, err)
	if err != nil {
		return model.WithFallback(err, fallback)
	}
	s.apply(op, seq, c)
	return nil
}

// ClearCart はカートを空にする。成功時はレスポンスを待たずローカルを空にする。
func (s *Store) ClearCart(ctx context.Context) error {
	seq, done := s.begin()
	defer done()

	err := s.backend.Clear(ctx)
	s.record(OpClear, err)
	if err != nil {
		return model.WithFallback(err, "Failed to clear cart")
	}
	s.apply(OpClear, seq, nil)
	return nil
}

// Reset はバックエンドを呼び出さずにローカルの状態を破棄する。
// 実行中の呼び出しのレスポンスは適用されない。ログアウト時に使用する。
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.applied = s.issued
	s.cart = nil
}

func cloneCart(c *model.Cart) *model.Cart {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Items != nil {
		cp.Items = make([]model.CartItem, len(c.Items))
		copy(cp.Items, c.Items)
	}
	return &cp
}
