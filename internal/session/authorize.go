package session

import (
	"havenhub/internal/events"
	"havenhub/internal/models"
)

type Verdict int

const (
	Allow Verdict = iota
	RedirectToLogin
	RedirectToDefault
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToDefault:
		return "redirect_to_default"
	}
	return "unknown"
}

// Decision is the outcome of an authorization check. Origin carries
// the originally requested view so a successful login can return the
// user there.
type Decision struct {
	Verdict Verdict
	Target  string
	Origin  string
}

// RoleNone marks a view that only requires authentication.
const RoleNone = models.Role("")

// Authorize decides whether the requested view may render. Anonymous
// users go to login; authenticated users lacking the required role go
// to their role's landing page. ADMIN overrides any role requirement.
func (g *Guard) Authorize(view string, required models.Role) Decision {
	g.mu.RLock()
	session := g.session
	g.mu.RUnlock()

	if session == nil {
		return Decision{Verdict: RedirectToLogin, Target: PathLogin, Origin: view}
	}

	if required == RoleNone {
		return Decision{Verdict: Allow, Target: view}
	}

	if session.User.HasRole(required) || session.User.HasRole(models.RoleAdmin) {
		return Decision{Verdict: Allow, Target: view}
	}

	return Decision{
		Verdict: RedirectToDefault,
		Target:  DefaultLandingFor(session.User.Roles),
		Origin:  view,
	}
}

// DefaultLandingFor picks the landing page for a role set. Staff roles
// win over the customer fallback; the order mirrors privilege.
func DefaultLandingFor(roles []models.Role) string {
	for _, candidate := range []struct {
		role models.Role
		path string
	}{
		{models.RoleAdmin, PathAdmin},
		{models.RoleManager, PathManager},
		{models.RoleReceptionist, PathReceptionist},
		{models.RoleCleaner, PathCleaner},
	} {
		for _, r := range roles {
			if r == candidate.role {
				return candidate.path
			}
		}
	}
	return PathRooms
}

func (g *Guard) publishSession(eventType string, user models.User) {
	if g.bus == nil {
		return
	}
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, string(r))
	}
	payload := events.SessionEventPayload{UserID: user.ID, Email: user.Email, Roles: roles}
	if err := g.bus.PublishJSON(eventType, payload); err != nil {
		g.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
