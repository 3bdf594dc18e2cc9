package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/storefront/internal/access"
	"github.com/hitoshi/storefront/internal/model"
)

// redirectHeader は画面層に遷移先を伝えるレスポンスヘッダー。
const redirectHeader = "X-Redirect-To"

// NewAccessMiddleware はアクセス規則に従ってリクエストを制御するミドルウェアを返す。
// ログインが必要な場合は401、権限が不足する場合は403を返し、遷移先をヘッダーで伝える。
func NewAccessMiddleware(reader SessionReader, rule access.Rule) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch access.Decide(reader.Snapshot(), rule) {
			case access.RedirectLogin:
				w.Header().Set(redirectHeader, "/login")
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     model.ErrCodeUnauthorized,
					Message:  "Please login to continue",
					Category: "auth",
					Action:   "ログインしてください。",
				})
				return
			case access.RedirectHome:
				slog.Warn("access denied",
					slog.String("rule", rule.String()),
					slog.String("path", r.URL.Path),
				)
				w.Header().Set(redirectHeader, "/")
				WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
					Code:     model.ErrCodeForbidden,
					Message:  "You do not have access to this page",
					Category: "auth",
					Action:   "この操作を行う権限がありません。",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
