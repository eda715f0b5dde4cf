// Package model defines domain entities for the application.
package model

import "time"

// Token purposes.
const (
	PurposeAuth = "auth"
)

// Token is one issued credential held by a user.
// A user may hold several at once, one per signed-in session.
type Token struct {
	Access string `json:"access" bson:"access"`
	Token  string `json:"token" bson:"token"`
}

// User is an account that owns todos and session tokens.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"` // Never serialize
	Tokens       []Token   `json:"-" bson:"tokens"`
	CreatedAt    time.Time `json:"-" bson:"created_at"`
}

// HasToken reports whether the user currently holds token for the given purpose.
func (u *User) HasToken(access, token string) bool {
	for _, t := range u.Tokens {
		if t.Access == access && t.Token == token {
			return true
		}
	}
	return false
}
