package domain

import "time"

// SourceStore identifies which user store a principal was resolved from.
type SourceStore string

const (
	// SourceModern is the current user table. It always wins when a
	// username exists in both stores.
	SourceModern SourceStore = "modern"
	// SourceLegacy is the pre-migration user table, consulted only when the
	// modern store has no row for the username.
	SourceLegacy SourceStore = "legacy"
)

// Principal is an authenticated identity resolved from one of the user stores.
type Principal struct {
	ID           string
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	Enabled      bool
	Source       SourceStore
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Role is a named grant bundle assigned to principals.
type Role struct {
	ID   string
	Code string
	Name string
}

// Permission is a single permission code, e.g. "student:read".
type Permission struct {
	ID   string
	Code string
	Name string
}
