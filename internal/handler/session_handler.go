package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
	"github.com/hitoshi/storefront/internal/session"
)

// SessionServiceInterface はセッションハンドラーが必要とするサービスインターフェース。
// *session.Store がこれを満たす。
type SessionServiceInterface interface {
	Snapshot() session.Snapshot
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, in model.RegisterInput) error
	Logout(ctx context.Context)
	UpdateProfile(ctx context.Context, in model.ProfileUpdate) error
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
}

// SessionHandler はログインセッションのHTTPハンドラー。
type SessionHandler struct {
	service SessionServiceInterface
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service SessionServiceInterface) *SessionHandler {
	return &SessionHandler{service: service}
}

// Get は現在のセッション状態を返す。
// GET /api/session
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// Login はログインする。
// POST /api/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeInvalidRequest(w, "Email and password are required")
		return
	}

	if err := h.service.Login(r.Context(), req.Email, req.Password); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// Register は会員登録する。
// POST /api/session/register
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Register(r.Context(), req); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.service.Snapshot())
}

// Logout はログアウトする。バックエンドの失敗にかかわらず成功を返す。
// POST /api/session/logout
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// UpdateProfile はプロフィールを更新する。
// PUT /api/session/profile
func (h *SessionHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.UpdateProfile(r.Context(), req); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// ChangePassword はパスワードを変更する。
// PUT /api/session/password
func (h *SessionHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req model.ChangePasswordInput
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
