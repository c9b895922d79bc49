package models

// Identity je rezultat prijave: stabilan userId i potpisan token.
type Identity struct {
	UserID    string `json:"userId"`
	Token     string `json:"token"`
	Anonymous bool   `json:"anonymous"`
	Ready     bool   `json:"ready"`
}
