// Package session はログインセッションを保持する認証ストアを提供する。
//
// セッションはサーバーが正とするキャッシュで、ログイン・会員登録・プロフィール取得の
// レスポンスによってのみ作られ、ログアウトまたはプロフィール取得の失敗で破棄される。
// 不変条件: IsAuthenticated == (User != nil)
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/storage"
)

// State はセッションの状態。
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// 操作名。メトリクスのラベルと変更通知に使用する。
const (
	OpLogin          = "login"
	OpRegister       = "register"
	OpLogout         = "logout"
	OpFetchProfile   = "fetch_profile"
	OpUpdateProfile  = "update_profile"
	OpChangePassword = "change_password"
	OpRestore        = "restore"
)

const storeName = "session"

// Backend は認証ストアが使用するバックエンドAPI。
// *api.AuthAPI がこれを満たす。
type Backend interface {
	Login(ctx context.Context, in model.LoginInput) (*model.AuthResponse, error)
	Register(ctx context.Context, in model.RegisterInput) (*model.AuthResponse, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, in model.ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, in model.ChangePasswordInput) error
}

// TokenStore はトークンの保存先。*storage.Tokens がこれを満たす。
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	Save(ctx context.Context, accessToken, refreshToken string) error
	Clear(ctx context.Context) error
}

// Snapshot はある時点のセッション状態のコピー。
type Snapshot struct {
	User            *model.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	State           State       `json:"state"`
	Loading         bool        `json:"isLoading"`
}

// Change はセッション状態の変更通知。
type Change struct {
	Op   string
	Prev Snapshot
	Next Snapshot
}

// Store は認証ストア。
// 状態はRWMutexで保護し、バックエンド呼び出し中はロックを保持しない。
type Store struct {
	backend Backend
	tokens  TokenStore
	persist storage.Storage // nilの場合は永続化しない
	logger  *slog.Logger
	metrics metrics.MetricsCollector

	mu             sync.RWMutex
	user           *model.User
	inflight       int // 実行中の呼び出し数。0より大きい間はLoading
	authenticating int // 匿名状態から開始したログイン系呼び出しの数

	subMu       sync.Mutex
	subscribers []func(Change)
}

// NewStore は匿名状態の認証ストアを生成する。
func NewStore(backend Backend, tokens TokenStore, persist storage.Storage, logger *slog.Logger, m metrics.MetricsCollector) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		tokens:  tokens,
		persist: persist,
		logger:  logger,
		metrics: metrics.OrNop(m),
	}
}

// Snapshot は現在の状態を返す。
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		User:            cloneUser(s.user),
		IsAuthenticated: s.user != nil,
		Loading:         s.inflight > 0,
	}
	switch {
	case s.user != nil:
		snap.State = StateAuthenticated
	case s.authenticating > 0:
		snap.State = StateAuthenticating
	default:
		snap.State = StateAnonymous
	}
	return snap
}

// User は現在のユーザーを返す。匿名の場合はnil。
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUser(s.user)
}

// IsAuthenticated はログイン中かどうかを返す。
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Subscribe は状態変更時に呼び出される関数を登録する。
// fnはロックを保持しない状態で、変更を行ったゴルーチンから同期的に呼び出される。
func (s *Store) Subscribe(fn func(Change)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	subs := make([]func(Change), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
}

// begin はLoadingフラグを立て、終了時に呼び出す関数を返す。
// login系の呼び出しでは匿名状態からの開始をauthenticatingとして数える。
func (s *Store) begin(op string, authenticating bool) func() {
	s.mu.Lock()
	prev := s.snapshotLocked()
	s.inflight++
	counted := authenticating && s.user == nil
	if counted {
		s.authenticating++
	}
	next := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(Change{Op: op, Prev: prev, Next: next})

	return func() {
		s.mu.Lock()
		prev := s.snapshotLocked()
		s.inflight--
		if counted {
			s.authenticating--
		}
		next := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(Change{Op: op, Prev: prev, Next: next})
	}
}

// setUser はユーザーを置き換え、永続化と変更通知を行う。
func (s *Store) setUser(ctx context.Context, op string, user *model.User) {
	s.mu.Lock()
	prev := s.snapshotLocked()
	s.user = cloneUser(user)
	next := s.snapshotLocked()
	persisted := s.toPersistedLocked()
	s.mu.Unlock()

	s.save(ctx, persisted)
	s.notify(Change{Op: op, Prev: prev, Next: next})
}

func (s *Store) record(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.metrics.RecordStoreOperation(storeName, op, result)
}

// errMissingUser はレスポンスにユーザーが含まれていない場合のエラー。
var errMissingUser = errors.New("response does not contain a user")

// Login はログインする。
// 成功時はトークンを保存して認証済みにする。失敗時は状態を変更せずエラーを返す。
func (s *Store) Login(ctx context.Context, email, password string) error {
	done := s.begin(OpLogin, true)
	defer done()

	resp, err := s.backend.Login(ctx, model.LoginInput{Email: email, Password: password})
	err = s.establish(ctx, OpLogin, resp, err)
	s.record(OpLogin, err)
	return model.WithFallback(err, "Login failed")
}

// Register は会員登録する。入力値の検証は行わない。
func (s *Store) Register(ctx context.Context, in model.RegisterInput) error {
	done := s.begin(OpRegister, true)
	defer done()

	resp, err := s.backend.Register(ctx, in)
	err = s.establish(ctx, OpRegister, resp, err)
	s.record(OpRegister, err)
	return model.WithFallback(err, "Registration failed")
}

// establish はログイン・会員登録のレスポンスからセッションを確立する。
func (s *Store) establish(ctx context.Context, op string, resp *model.AuthResponse, err error) error {
	if err != nil {
		return err
	}
	if resp == nil || resp.User == nil {
		return model.NewDecodeError(0, errMissingUser)
	}
	if err := s.tokens.Save(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		if clearErr := s.tokens.Clear(context.WithoutCancel(ctx)); clearErr != nil {
			s.logger.Warn("保存途中のトークンの削除に失敗しました",
				slog.String("error", clearErr.Error()),
			)
		}
		return err
	}
	s.setUser(ctx, op, resp.User)
	s.logger.Info("ログインしました",
		slog.String("op", op),
		slog.String("user_id", resp.User.ID),
	)
	return nil
}

// Logout はログアウトする。
// バックエンドの失敗は無視し、トークンの削除と匿名状態への遷移は必ず行う。
func (s *Store) Logout(ctx context.Context) {
	done := s.begin(OpLogout, false)
	defer done()

	if err := s.backend.Logout(ctx); err != nil {
		s.metrics.RecordStoreOperation(storeName, OpLogout, "swallowed")
		s.logger.Warn("バックエンドのログアウトに失敗しました（ローカルのセッションは破棄します）",
			slog.String("error", err.Error()),
		)
	} else {
		s.record(OpLogout, nil)
	}

	if err := s.tokens.Clear(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("トークンの削除に失敗しました",
			slog.String("error", err.Error()),
		)
	}
	s.setUser(ctx, OpLogout, nil)
}

// FetchProfile はプロフィールを取得してセッションを検証する。
// トークンがない場合は何もしない。失敗時はエラーを返さず匿名状態に戻す。
func (s *Store) FetchProfile(ctx context.Context) {
	_ = s.revalidate(ctx, func(error) bool { return true })
}

// Revalidate はバックグラウンド同期用のセッション検証を行い、バックエンドのエラーを返す。
// 匿名状態に戻すのはバックエンドが401・403で拒否した場合だけで、
// 5xxや通信エラーではトークンとユーザーを保持する。
func (s *Store) Revalidate(ctx context.Context) error {
	return s.revalidate(ctx, isAuthRejection)
}

// revalidate はプロフィールを取得し、失敗がdemoteを満たす場合に匿名状態に戻す。
// トークンがない場合と、呼び出し元がctxをキャンセルした場合は状態を変更しない。
func (s *Store) revalidate(ctx context.Context, demote func(error) bool) error {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		s.logger.Warn("アクセストークンの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
		return nil
	}
	if token == "" {
		return nil
	}

	done := s.begin(OpFetchProfile, true)
	defer done()

	user, err := s.backend.Profile(ctx)
	if err == nil && user == nil {
		err = model.NewDecodeError(0, errMissingUser)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !demote(err) {
			s.record(OpFetchProfile, err)
			s.logger.Warn("セッションの検証に失敗しました（セッションは保持します）",
				slog.String("error", err.Error()),
			)
			return err
		}
		s.metrics.RecordStoreOperation(storeName, OpFetchProfile, "expired")
		s.logger.Info("セッションの検証に失敗したため匿名状態に戻します",
			slog.String("error", err.Error()),
		)
		if clearErr := s.tokens.Clear(context.WithoutCancel(ctx)); clearErr != nil {
			s.logger.Warn("トークンの削除に失敗しました",
				slog.String("error", clearErr.Error()),
			)
		}
		s.setUser(ctx, OpFetchProfile, nil)
		return err
	}

	s.record(OpFetchProfile, nil)
	s.setUser(ctx, OpFetchProfile, user)
	return nil
}

// isAuthRejection はバックエンドが認証を拒否した（401・403）エラーかを判定する。
func isAuthRejection(err error) bool {
	apiErr, ok := model.AsAPIError(err)
	if !ok {
		return false
	}
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeForbidden:
		return true
	}
	return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
}

// UpdateProfile はプロフィールを更新し、返されたユーザーで状態を置き換える。
// 失敗時は以前のユーザー情報を保持したままエラーを返す。
func (s *Store) UpdateProfile(ctx context.Context, in model.ProfileUpdate) error {
	done := s.begin(OpUpdateProfile, false)
	defer done()

	user, err := s.backend.UpdateProfile(ctx, in)
	if err == nil && user == nil {
		err = model.NewDecodeError(0, errMissingUser)
	}
	s.record(OpUpdateProfile, err)
	if err != nil {
		return model.WithFallback(err, "Update failed")
	}

	s.setUser(ctx, OpUpdateProfile, user)
	return nil
}

// ChangePassword はパスワードを変更する。セッション状態は変更しない。
func (s *Store) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	done := s.begin(OpChangePassword, false)
	defer done()

	err := s.backend.ChangePassword(ctx, model.ChangePasswordInput{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	})
	s.record(OpChangePassword, err)
	return model.WithFallback(err, "Password change failed")
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.Addresses != nil {
		cp.Addresses = make([]model.Address, len(u.Addresses))
		copy(cp.Addresses, u.Addresses)
	}
	return &cp
}
