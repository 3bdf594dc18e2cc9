// Package model はストアフロントクライアントが扱うドメインモデルを定義する。
// すべての値はバックエンドのJSONレスポンスと同じ形状を持ち、クライアント側で独自に生成しない。
package model

import "time"

// Role はユーザーの権限ロールを表す。
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleSeller   Role = "seller"
)

// Address はユーザーが保存した配送先住所を表す。
type Address struct {
	ID        string `json:"id"`
	Type      string `json:"type"` // home, work, other
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Country   string `json:"country"`
	ZipCode   string `json:"zipCode"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"isDefault"`
}

// User はログイン中のユーザーを表す。
// プロフィール更新APIのレスポンスによってのみ変更される。
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Phone      string    `json:"phone"`
	Avatar     string    `json:"avatar"`
	Role       Role      `json:"role"`
	Addresses  []Address `json:"addresses"`
	IsActive   bool      `json:"isActive"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IsAdmin は管理者ロールかどうかを返す。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// FullName は表示用の氏名を返す。
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// AuthResponse はログイン・会員登録APIの成功レスポンス。
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginInput はログインAPIのリクエストボディ。
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterInput は会員登録APIのリクエストボディ。
// パスワード一致・長さの検証は呼び出し元のビューが行う。
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

// ProfileUpdate はプロフィール更新APIに送る部分更新。
// nilのフィールドは送信しない。
type ProfileUpdate struct {
	FirstName *string   `json:"firstName,omitempty"`
	LastName  *string   `json:"lastName,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Avatar    *string   `json:"avatar,omitempty"`
	Addresses []Address `json:"addresses,omitempty"`
}

// ChangePasswordInput はパスワード変更APIのリクエストボディ。
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
