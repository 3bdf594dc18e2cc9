// Package storage はクライアントの永続ストレージ（ブラウザのlocalStorage相当）を提供する。
//
// アクセストークン・リフレッシュトークンと、永続化したセッション情報を
// 文字列のキー・バリューとして保存する。バックエンドはメモリ、ファイル、
// PostgreSQL、Redisから選択できる。
package storage

import (
	"context"
	"errors"
	"fmt"
)

// 永続ストレージのキー
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	// KeySession は永続化したセッション情報（user, isAuthenticated）の保存キー。
	// トークンはこのblobに含めず、別キーに保存する。
	KeySession = "auth-storage"
)

// Storage は永続ストレージのインターフェース。
type Storage interface {
	// Get はキーに対応する値を返す。存在しない場合はokがfalseになる。
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set はキーに値を保存する。既存の値は上書きする。
	Set(ctx context.Context, key, value string) error
	// Remove はキーを削除する。存在しないキーの削除はエラーにしない。
	Remove(ctx context.Context, key string) error
}

// Tokens はアクセストークン・リフレッシュトークンの読み書きを提供する。
// APIクライアントはここから毎回ベアラートークンを読み出す。
type Tokens struct {
	store Storage
}

// NewTokens はTokensを生成する。
func NewTokens(store Storage) *Tokens {
	return &Tokens{store: store}
}

// AccessToken は保存されているアクセストークンを返す。未保存の場合は空文字列を返す。
func (t *Tokens) AccessToken(ctx context.Context) (string, error) {
	v, _, err := t.store.Get(ctx, KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	return v, nil
}

// RefreshToken は保存されているリフレッシュトークンを返す。未保存の場合は空文字列を返す。
func (t *Tokens) RefreshToken(ctx context.Context) (string, error) {
	v, _, err := t.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	return v, nil
}

// Save は両方のトークンを保存する。
// リフレッシュトークンの保存に失敗した場合は、保存済みのアクセストークンを削除する。
func (t *Tokens) Save(ctx context.Context, accessToken, refreshToken string) error {
	if err := t.store.Set(ctx, KeyAccessToken, accessToken); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	if err := t.store.Set(ctx, KeyRefreshToken, refreshToken); err != nil {
		rollbackErr := t.store.Remove(context.WithoutCancel(ctx), KeyAccessToken)
		return errors.Join(fmt.Errorf("failed to save refresh token: %w", err), rollbackErr)
	}
	return nil
}

// Clear は両方のトークンを削除する。
// 片方の削除に失敗しても、もう片方の削除は試行する。
func (t *Tokens) Clear(ctx context.Context) error {
	errAccess := t.store.Remove(ctx, KeyAccessToken)
	errRefresh := t.store.Remove(ctx, KeyRefreshToken)
	return errors.Join(errAccess, errRefresh)
}
