package portal

// GateOutcome classifies what a protected view should do for the current
// session state.
type GateOutcome string

const (
	// GateLoading means the session is still bootstrapping; render a
	// placeholder and re-evaluate on the next state change.
	GateLoading GateOutcome = "loading"
	// GateRedirectSignIn means there is no identity; send the user to the
	// sign-in entry point.
	GateRedirectSignIn GateOutcome = "redirect_sign_in"
	// GateRedirectLanding means the identity fails the role or status
	// constraint; send the user to the default landing page.
	GateRedirectLanding GateOutcome = "redirect_landing"
	// GateAllow means the protected content may render.
	GateAllow GateOutcome = "allow"
)

// GateRequirement describes what a protected view demands. Role is the legacy
// single-role form: when set it wins and Roles is ignored. Empty Roles or
// Statuses means no constraint on that axis.
type GateRequirement struct {
	Role     Role
	Roles    []Role
	Statuses []AccountStatus
}

// roleSet resolves the legacy precedence rule.
func (r GateRequirement) roleSet() []Role {
	if r.Role != "" {
		return []Role{r.Role}
	}
	return r.Roles
}

// GateDecision is the outcome plus, for redirect outcomes, the target path.
type GateDecision struct {
	Outcome GateOutcome
	Target  string
}

// Gate is the pure access-control decision function for protected views.
// Decide is deterministic and side-effect free; callers re-evaluate it
// whenever the identity or bootstrapping flag changes.
type Gate struct {
	// SignInPath is the sign-in entry point (default "/auth/signin")
	SignInPath string
	// LandingPath is the default landing page (default "/")
	LandingPath string
}

// Decide classifies the current session state against req, in strict priority
// order: loading, no identity, role constraint, status constraint, allow.
func (g Gate) Decide(identity *User, bootstrapping bool, req GateRequirement) GateDecision {
	if bootstrapping {
		return GateDecision{Outcome: GateLoading}
	}

	if identity == nil {
		return GateDecision{Outcome: GateRedirectSignIn, Target: g.signInPath()}
	}

	if roles := req.roleSet(); len(roles) > 0 && !roleIn(identity.Role, roles) {
		return GateDecision{Outcome: GateRedirectLanding, Target: g.landingPath()}
	}

	if len(req.Statuses) > 0 && !statusIn(identity.Status, req.Statuses) {
		return GateDecision{Outcome: GateRedirectLanding, Target: g.landingPath()}
	}

	return GateDecision{Outcome: GateAllow}
}

func (g Gate) signInPath() string {
	if g.SignInPath == "" {
		return "/auth/signin"
	}
	return g.SignInPath
}

func (g Gate) landingPath() string {
	if g.LandingPath == "" {
		return "/"
	}
	return g.LandingPath
}
