package model

import "time"

const (
	RoleAdmin      = "admin"
	RoleTeamMember = "team_member"
)

type User struct {
	UUID                string     `db:"uuid" json:"uuid"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	FirstName           string     `db:"first_name" json:"firstName"`
	LastName            string     `db:"last_name" json:"lastName"`
	Role                string     `db:"role" json:"role"`
	IsActive            bool       `db:"is_active" json:"isActive"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockUntil           *time.Time `db:"lock_until" json:"-"`
	PasswordChangedAt   *time.Time `db:"password_changed_at" json:"-"`
	LastLogin           *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
}

// IsLocked : аккаунт заблокирован, пока lock_until в будущем
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}
