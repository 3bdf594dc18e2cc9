// Package access はセッション状態から画面・APIへのアクセス可否を判定する。
package access

import "github.com/hitoshi/storefront/internal/session"

// Rule はアクセス規則。
type Rule int

const (
	// Public は誰でもアクセスできる。
	Public Rule = iota
	// Guest は未ログインのユーザーのみ。ログイン済みはホームへ戻す。
	Guest
	// Protected はログイン済みのユーザーのみ。
	Protected
	// AdminOnly は管理者のみ。
	AdminOnly
)

func (r Rule) String() string {
	switch r {
	case Public:
		return "public"
	case Guest:
		return "guest"
	case Protected:
		return "protected"
	case AdminOnly:
		return "admin_only"
	}
	return "unknown"
}

// Decision は判定結果。
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	}
	return "unknown"
}

// Decide はスナップショットと規則からアクセス可否を判定する。
// 認証中(authenticating)は未ログインとして扱う。
func Decide(snap session.Snapshot, rule Rule) Decision {
	switch rule {
	case Guest:
		if snap.IsAuthenticated {
			return RedirectHome
		}
	case Protected:
		if !snap.IsAuthenticated {
			return RedirectLogin
		}
	case AdminOnly:
		if !snap.IsAuthenticated {
			return RedirectLogin
		}
		if !snap.User.IsAdmin() {
			return RedirectHome
		}
	}
	return Allow
}
