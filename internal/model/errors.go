package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// ストア操作の失敗は呼び出し元のビューにこの型で伝える。
type APIError struct {
	Code       string // エラーコード
	Message    string // エラーメッセージ（サーバーが返したメッセージを優先）
	Category   string // カテゴリ: auth, validation, cart, order, system
	Action     string // ユーザー向け対処方法
	StatusCode int    // バックエンドのHTTPステータス（通信失敗時は0）
	Err        error  // 原因となったエラー（通信失敗・解析失敗時）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("[%s] %v", e.Code, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因となったエラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// 定義済みエラーコード
const (
	ErrCodeAPI                  = "API_ERROR"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeTransport            = "TRANSPORT_ERROR"
	ErrCodeDecode               = "DECODE_ERROR"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeEmptyCart            = "EMPTY_CART"
	ErrCodeAddressRequired      = "ADDRESS_REQUIRED"
	ErrCodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
)

// NewServerError はバックエンドが success=false またはエラーステータスを返した場合のエラーを生成する。
// serverMessageが空の場合、メッセージは WithFallback で呼び出し元が補う。
func NewServerError(statusCode int, serverMessage string) *APIError {
	msg := serverMessage

	code := ErrCodeAPI
	category := "system"
	action := "しばらく待ってから再度お試しください。"
	switch {
	case statusCode == 401:
		code, category, action = ErrCodeUnauthorized, "auth", "ログインし直してください。"
	case statusCode == 403:
		code, category, action = ErrCodeForbidden, "auth", "この操作を行う権限がありません。"
	case statusCode == 404:
		code, category, action = ErrCodeNotFound, "validation", "指定した内容を確認してください。"
	case statusCode == 429:
		code, action = ErrCodeRateLimited, "しばらく待ってから再度お試しください。"
	case statusCode >= 400 && statusCode < 500:
		category, action = "validation", "入力内容を確認してください。"
	}

	return &APIError{
		Code:       code,
		Message:    msg,
		Category:   category,
		Action:     action,
		StatusCode: statusCode,
	}
}

// NewTransportError はバックエンドに到達できなかった場合のエラーを生成する。
// サーバーのメッセージが存在しないため、Messageは空のままにする。
func NewTransportError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeTransport,
		Category: "system",
		Action:   "ネットワーク接続を確認してから再度お試しください。",
		Err:      cause,
	}
}

// NewDecodeError はレスポンスの解析に失敗した場合のエラーを生成する。
func NewDecodeError(statusCode int, cause error) *APIError {
	return &APIError{
		Code:       ErrCodeDecode,
		Category:   "system",
		Action:     "しばらく待ってから再度お試しください。",
		StatusCode: statusCode,
		Err:        cause,
	}
}

// WithFallback はAPIErrorのメッセージが空の場合にfallbackで補ったコピーを返す。
// APIError以外のエラーはfallbackをメッセージとするAPIErrorに包む。
func WithFallback(err error, fallback string) error {
	if err == nil {
		return nil
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		return &APIError{
			Code:     ErrCodeAPI,
			Message:  fallback,
			Category: "system",
			Action:   "しばらく待ってから再度お試しください。",
			Err:      err,
		}
	}
	if apiErr.Message != "" {
		return apiErr
	}
	cp := *apiErr
	cp.Message = fallback
	return &cp
}

// NewEmptyCartError はカートが空のまま注文しようとした場合のエラーを生成する。
func NewEmptyCartError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyCart,
		Message:  "カートが空です。",
		Category: "cart",
		Action:   "商品をカートに追加してから注文してください。",
	}
}

// NewAddressRequiredError は配送先未選択エラーを生成する。
func NewAddressRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeAddressRequired,
		Message:  "Please select a delivery address",
		Category: "validation",
		Action:   "配送先住所を選択してください。",
	}
}

// NewInvalidPaymentMethodError は未定義の支払い方法が指定された場合のエラーを生成する。
func NewInvalidPaymentMethodError(method string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPaymentMethod,
		Message:  fmt.Sprintf("無効な支払い方法です: %s", method),
		Category: "validation",
		Action:   "支払い方法には cod、card、upi、wallet のいずれかを指定してください。",
	}
}

// NewInvalidRequestError はリクエストボディが不正な場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// AsAPIError はerrがAPIErrorを含む場合にそれを返す。
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
