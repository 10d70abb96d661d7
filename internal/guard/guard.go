// Package guard decides, per navigation, whether the current session may
// view a destination. Authorize is a pure function of (session, required
// roles) and is evaluated on every navigation; decisions are never cached
// because the session can change between navigations.
package guard

import "github.com/delacruzpj/deskhub_client/internal/models"

// Decision is the outcome of an authorization check.
type Decision int

const (
	// Allow lets the navigation proceed.
	Allow Decision = iota
	// RedirectLogin means there is no usable session.
	RedirectLogin
	// RedirectUnauthorized means the session's role may not view the
	// destination.
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectUnauthorized:
		return "redirect-unauthorized"
	}
	return "unknown"
}

// RoleSet is the set of roles allowed on a destination.
type RoleSet map[models.Role]struct{}

// Roles builds a RoleSet.
func Roles(rr ...models.Role) RoleSet {
	set := make(RoleSet, len(rr))
	for _, r := range rr {
		set[r] = struct{}{}
	}
	return set
}

// Authorize decides whether the session may view a destination requiring
// one of the given roles. No session or no token redirects to login; a
// session whose role is not in the set redirects to the unauthorized page.
func Authorize(sess *models.Session, required RoleSet) Decision {
	if !sess.Authenticated() {
		return RedirectLogin
	}
	if _, ok := required[sess.Identity.Role]; !ok {
		return RedirectUnauthorized
	}
	return Allow
}
