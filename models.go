package iam

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the lifecycle status of an account
type UserStatus string

const (
	// UserStatusActive accounts can log in and receive links
	UserStatusActive UserStatus = "active"
	// UserStatusInactive accounts were closed
	UserStatusInactive UserStatus = "inactive"
)

// User is the user model. ID is internal, PID is the public identifier.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"-"`
	PID           uuid.UUID  `bun:"pid,notnull,unique" json:"pid"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name"`
	LastName      string     `bun:"last_name,notnull" json:"last_name"`
	PasswordHash  string     `bun:"password_hash,nullzero" json:"-"`
	Status        UserStatus `bun:"status,notnull" json:"status"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// EnsureStatus defaults an empty status to active
func (u *User) EnsureStatus() {
	if u != nil && u.Status == "" {
		u.Status = UserStatusActive
	}
}

// IsActive reports whether the account is active
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}

// Sanitized returns a copy of the user without password material
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	return &out
}

// Public returns the view of the user that is safe to expose
func (u *User) Public() PublicUser {
	return PublicUser{
		PID:       u.PID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// PublicUser carries no internal id and no password material
type PublicUser struct {
	PID       string     `json:"pid"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Session correlates one live login with the session id embedded in a bearer.
// Sessions are created and deleted, never updated.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`
	ID            uuid.UUID `bun:"id,pk,nullzero,type:uuid" json:"-"`
	SessionID     uuid.UUID `bun:"session_id,notnull,unique" json:"session_id"`
	UserID        uuid.UUID `bun:"user_id,notnull,type:uuid" json:"-"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// SessionUser is the payload embedded in a login bearer
type SessionUser struct {
	SessionID string `json:"session_id"`
	PID       string `json:"pid"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// AuthBearer is returned on successful authentication
type AuthBearer struct {
	Token string       `json:"token"`
	User  *SessionUser `json:"user,omitempty"`
}

// Link purposes keep login and verification tokens apart
const (
	LinkPurposeLogin        = "login"
	LinkPurposeVerification = "verify_email"
)

// LinkClaims is the payload of magic link and verification tokens. ID makes
// each link unique so a consumed login link can be recorded.
type LinkClaims struct {
	ID      string `json:"id"`
	PID     string `json:"pid"`
	Purpose string `json:"purpose"`
}

// UsedLink marks a login link as consumed until it would have expired
type UsedLink struct {
	bun.BaseModel `bun:"table:used_links,alias:ul"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

func newSessionUser(session *Session, user *User) SessionUser {
	return SessionUser{
		SessionID: session.SessionID.String(),
		PID:       user.PID.String(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}
}
