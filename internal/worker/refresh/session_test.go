package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/session"
	"github.com/hitoshi/storefront/internal/storage"
)

// profileBackend はProfileの結果だけを差し替えられるsession.Backend。
type profileBackend struct {
	profileErr error
}

func (b *profileBackend) Login(context.Context, model.LoginInput) (*model.AuthResponse, error) {
	return &model.AuthResponse{
		User:         &model.User{ID: "u1", Email: "priya@example.com", Role: model.RoleCustomer},
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}, nil
}
func (b *profileBackend) Register(context.Context, model.RegisterInput) (*model.AuthResponse, error) {
	return nil, errors.New("not used")
}
func (b *profileBackend) Logout(context.Context) error { return nil }
func (b *profileBackend) Profile(context.Context) (*model.User, error) {
	if b.profileErr != nil {
		return nil, b.profileErr
	}
	return &model.User{ID: "u1", Email: "priya@example.com", Role: model.RoleCustomer}, nil
}
func (b *profileBackend) UpdateProfile(context.Context, model.ProfileUpdate) (*model.User, error) {
	return nil, errors.New("not used")
}
func (b *profileBackend) ChangePassword(context.Context, model.ChangePasswordInput) error {
	return errors.New("not used")
}

type sessionFixture struct {
	backend *profileBackend
	session *session.Store
	tokens  *storage.Tokens
	cart    *mockRefresher
	worker  *Worker
	clock   time.Time
}

// newSessionFixture は実際のsession.Storeにログイン済みの状態でワーカーを生成する。
func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	mem := storage.NewMemoryStorage()
	tokens := storage.NewTokens(mem)
	backend := &profileBackend{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	sess := session.NewStore(backend, tokens, mem, logger, nil)
	if err := sess.Login(context.Background(), "priya@example.com", "secret"); err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}

	f := &sessionFixture{
		backend: backend,
		session: sess,
		tokens:  tokens,
		cart:    &mockRefresher{},
	}
	f.worker = NewWorker(sess, f.cart, &mockRefresher{}, logger, &recordingMetrics{})
	f.clock = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.worker.now = func() time.Time { return f.clock }
	return f
}

func TestRunOnce_SessionSurvivesServerOutage(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"503", model.NewServerError(503, "")},
		{"通信エラー", model.NewTransportError(errors.New("connection reset"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			f.backend.profileErr = tt.err

			if got := f.worker.RunOnce(context.Background()); got != "backoff" {
				t.Fatalf("RunOnce = %q, want backoff", got)
			}
			if !f.session.IsAuthenticated() {
				t.Error("outage should not log the user out")
			}
			if token, _ := f.tokens.AccessToken(context.Background()); token != "access-1" {
				t.Errorf("access token = %q, want access-1", token)
			}

			// 復旧後の同期は通常どおり成功する
			f.backend.profileErr = nil
			f.clock = f.clock.Add(maxBackoff + time.Second)
			if got := f.worker.RunOnce(context.Background()); got != "ok" {
				t.Errorf("RunOnce after recovery = %q, want ok", got)
			}
		})
	}
}

func TestRunOnce_RejectedSessionStopsAndLogsOut(t *testing.T) {
	f := newSessionFixture(t)
	f.backend.profileErr = model.NewServerError(401, "Token expired")

	if got := f.worker.RunOnce(context.Background()); got != "stop" {
		t.Fatalf("RunOnce = %q, want stop", got)
	}
	if f.session.IsAuthenticated() {
		t.Error("401 should demote the session")
	}
	if token, _ := f.tokens.AccessToken(context.Background()); token != "" {
		t.Errorf("access token = %q, want empty", token)
	}
	if f.cart.count() != 0 {
		t.Error("cart should not be refreshed after rejection")
	}
}
