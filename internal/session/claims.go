package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/storefront/internal/model"
)

// ErrNoToken はアクセストークンが保存されていない場合のエラー。
var ErrNoToken = errors.New("no access token stored")

// Claims はアクセストークンに含まれるクレーム。
type Claims struct {
	UserID string     `json:"userId"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// AccessTokenClaims は保存されているアクセストークンのクレームを返す。
// 署名は検証しない。表示・診断用途に限り、認可の判断には使用しないこと。
func (s *Store) AccessTokenClaims(ctx context.Context) (*Claims, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoToken
	}
	return ParseClaims(token)
}

// ParseClaims はJWTを署名検証なしでデコードする。
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}
