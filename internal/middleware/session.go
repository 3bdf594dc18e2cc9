// Package middleware はブリッジHTTPサーバーのミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/storefront/internal/session"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// SessionReader は現在のセッション状態の読み取りに必要なインターフェース。
// *session.Store がこれを満たす。
type SessionReader interface {
	Snapshot() session.Snapshot
}

// NewSessionMiddleware はログイン中のユーザーIDをリクエストコンテキストに注入するミドルウェアを返す。
// 未ログインのリクエストもそのまま通す。アクセス制御はNewAccessMiddlewareが行う。
func NewSessionMiddleware(reader SessionReader) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := reader.Snapshot()
			if snap.IsAuthenticated && snap.User != nil {
				r = r.WithContext(ContextWithUserID(r.Context(), snap.User.ID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
