package models

import "time"

// Account represents a registered marketplace user.
type Account struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"` // bcrypt, never returned by the API
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is the current-user pointer of this local instance.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionFor copies the public identity of an account into a Session.
func SessionFor(a Account) Session {
	return Session{ID: a.ID, Name: a.Name, Email: a.Email}
}
