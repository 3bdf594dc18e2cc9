package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
)

// NewOriginGuardMiddleware は他サイトからの状態変更リクエストを拒否するミドルウェアを返す。
// 状態変更メソッド（POST, PUT, PATCH, DELETE）で、Sec-Fetch-Siteがcross-siteのもの、
// またはOriginヘッダーが許可オリジンとも自ホストとも一致しないものを403にする。
// Originを送らないクライアント（CLIなど）は許可する。
func NewOriginGuardMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) || sameOriginRequest(r, allowedOrigin) {
				next.ServeHTTP(w, r)
				return
			}

			slog.Warn("cross-site request rejected",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("origin", r.Header.Get("Origin")),
			)
			WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
				Code:     "CROSS_SITE_REQUEST",
				Message:  "Cross-site request rejected",
				Category: "auth",
				Action:   "ストアフロントの画面から操作してください。",
			})
		})
	}
}

func sameOriginRequest(r *http.Request, allowedOrigin string) bool {
	origin := r.Header.Get("Origin")
	if origin != "" {
		return origin == allowedOrigin || origin == "http://"+r.Host || origin == "https://"+r.Host
	}
	return r.Header.Get("Sec-Fetch-Site") != "cross-site"
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
