package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/storefront/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteError はエラーを統一フォーマットで書き込む。
// APIError以外のエラーは内部エラーとして扱い、詳細を返さない。
func WriteError(w http.ResponseWriter, err error) {
	apiErr, ok := model.AsAPIError(err)
	if !ok {
		WriteInternalServerError(w)
		return
	}
	WriteErrorResponse(w, StatusFor(apiErr), apiErr)
}

// StatusFor はAPIErrorに対応するブリッジのHTTPステータスを返す。
// バックエンドの4xxはそのまま返し、5xxと通信・解析の失敗は502にする。
func StatusFor(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeEmptyCart, model.ErrCodeAddressRequired,
		model.ErrCodeInvalidPaymentMethod, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeTransport, model.ErrCodeDecode:
		return http.StatusBadGateway
	}
	switch {
	case apiErr.StatusCode >= 500:
		return http.StatusBadGateway
	case apiErr.StatusCode >= 400:
		return apiErr.StatusCode
	}
	return http.StatusInternalServerError
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}
