package api

import (
	"context"
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
)

// AuthAPI は /auth 配下のエンドポイントのラッパー。
type AuthAPI struct {
	c *Client
}

// NewAuthAPI はAuthAPIを生成する。
func NewAuthAPI(c *Client) *AuthAPI {
	return &AuthAPI{c: c}
}

// Login はメールアドレスとパスワードでログインする。
func (a *AuthAPI) Login(ctx context.Context, in model.LoginInput) (*model.AuthResponse, error) {
	return require(call[model.AuthResponse](ctx, a.c, request{
		method: http.MethodPost, path: "/auth/login", endpoint: "auth.login", body: in,
	}))
}

// Register は会員登録を行う。
func (a *AuthAPI) Register(ctx context.Context, in model.RegisterInput) (*model.AuthResponse, error) {
	return require(call[model.AuthResponse](ctx, a.c, request{
		method: http.MethodPost, path: "/auth/register", endpoint: "auth.register", body: in,
	}))
}

// Logout はサーバー側のセッションを破棄する。
func (a *AuthAPI) Logout(ctx context.Context) error {
	return a.c.exec(ctx, request{
		method: http.MethodPost, path: "/auth/logout", endpoint: "auth.logout",
	})
}

// Profile はログイン中のユーザーのプロフィールを取得する。
func (a *AuthAPI) Profile(ctx context.Context) (*model.User, error) {
	return require(call[model.User](ctx, a.c, request{
		method: http.MethodGet, path: "/auth/profile", endpoint: "auth.profile",
	}))
}

// UpdateProfile はプロフィールを部分更新し、更新後のユーザーを返す。
func (a *AuthAPI) UpdateProfile(ctx context.Context, in model.ProfileUpdate) (*model.User, error) {
	return require(call[model.User](ctx, a.c, request{
		method: http.MethodPut, path: "/auth/profile", endpoint: "auth.update_profile", body: in,
	}))
}

// ChangePassword はパスワードを変更する。
func (a *AuthAPI) ChangePassword(ctx context.Context, in model.ChangePasswordInput) error {
	return a.c.exec(ctx, request{
		method: http.MethodPut, path: "/auth/change-password", endpoint: "auth.change_password", body: in,
	})
}
