package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/storage"
)

// Persisted は永続化するセッション情報。トークンは含めない。
type Persisted struct {
	User            *model.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}

// ToPersisted は現在の状態を永続化用の形に変換する。
func (s *Store) ToPersisted() Persisted {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toPersistedLocked()
}

func (s *Store) toPersistedLocked() Persisted {
	return Persisted{
		User:            cloneUser(s.user),
		IsAuthenticated: s.user != nil,
	}
}

// FromPersisted は永続化された状態を読み込む。
// userとisAuthenticatedが一致しない値は匿名状態として扱う。
func (s *Store) FromPersisted(p Persisted) {
	s.mu.Lock()
	prev := s.snapshotLocked()
	if p.IsAuthenticated && p.User != nil {
		s.user = cloneUser(p.User)
	} else {
		s.user = nil
	}
	next := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Change{Op: OpRestore, Prev: prev, Next: next})
}

// Restore は永続ストレージからセッションを復元する。
// 保存されていない場合は何もしない。
func (s *Store) Restore(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}

	raw, ok, err := s.persist.Get(ctx, storage.KeySession)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if !ok {
		return nil
	}

	var p Persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// 壊れたデータは破棄して匿名状態で起動する
		s.logger.Warn("永続化されたセッションを読み込めないため破棄します",
			slog.String("error", err.Error()),
		)
		if rmErr := s.persist.Remove(ctx, storage.KeySession); rmErr != nil {
			return fmt.Errorf("failed to remove corrupt session: %w", rmErr)
		}
		return nil
	}

	s.FromPersisted(p)
	return nil
}

// save は永続化用の状態を書き込む。失敗してもセッション操作は失敗させない。
func (s *Store) save(ctx context.Context, p Persisted) {
	if s.persist == nil {
		return
	}

	data, err := json.Marshal(p)
	if err != nil {
		s.logger.Error("セッションのエンコードに失敗しました", slog.String("error", err.Error()))
		return
	}
	if err := s.persist.Set(context.WithoutCancel(ctx), storage.KeySession, string(data)); err != nil {
		s.logger.Error("セッションの保存に失敗しました", slog.String("error", err.Error()))
	}
}
