package models

import "fmt"

// Role is the account role attached to a session.
type Role string

const (
	RoleReporter Role = "reporter"
	RoleAgent    Role = "agent"
)

// ParseRole normalizes a backend role value. The backend calls reporters
// "user" in its payloads.
func ParseRole(s string) (Role, error) {
	switch s {
	case "reporter", "user":
		return RoleReporter, nil
	case "agent":
		return RoleAgent, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Identity is the authenticated account the backend returned at login.
type Identity struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	City       string `json:"city"`
	Barangay   string `json:"barangay"`
	ContactNum string `json:"contact_num"`
}

// Session is the single authenticated identity of the running client.
// It is immutable; login replaces it wholesale.
type Session struct {
	Identity Identity `json:"identity"`
	Token    string   `json:"token"`
}

// Authenticated reports whether the session carries a usable token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}
