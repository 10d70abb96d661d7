package guard

import "github.com/delacruzpj/deskhub_client/internal/models"

// Screen routes. Reporters and agents each get their own set of gated
// screens; login, signup, and the unauthorized page are public.
const (
	RouteHome           = "/home"
	RouteCases          = "/cases"
	RouteSettings       = "/settings"
	RouteChangePassword = "/change-password"
	RouteDashboard      = "/dashboard"
	RouteAgentCases     = "/agentcases"
	RouteLogin          = "/login"
	RouteSignup         = "/signup"
	RouteUnauthorized   = "/unauthorized"
)

// routeTable declares the required role set per destination. A nil set
// means the destination is public.
var routeTable = map[string]RoleSet{
	RouteHome:           Roles(models.RoleReporter),
	RouteCases:          Roles(models.RoleReporter),
	RouteSettings:       Roles(models.RoleReporter),
	RouteChangePassword: Roles(models.RoleReporter),
	RouteDashboard:      Roles(models.RoleAgent),
	RouteAgentCases:     Roles(models.RoleAgent),
	RouteLogin:          nil,
	RouteSignup:         nil,
	RouteUnauthorized:   nil,
}

// RequiredRoles looks a destination up in the route table.
func RequiredRoles(route string) (RoleSet, bool) {
	set, ok := routeTable[route]
	return set, ok
}

// Check authorizes a navigation to a named route. Unknown routes are
// treated as unauthorized destinations.
func Check(sess *models.Session, route string) Decision {
	required, known := routeTable[route]
	if !known {
		return RedirectUnauthorized
	}
	if required == nil {
		return Allow
	}
	return Authorize(sess, required)
}

// HomeRoute is the landing destination for a role after login.
func HomeRoute(role models.Role) string {
	switch role {
	case models.RoleAgent:
		return RouteDashboard
	case models.RoleReporter:
		return RouteHome
	}
	return RouteUnauthorized
}
