package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/sample_app/internal/logging"
	"github.com/Skotchmaster/sample_app/internal/models"
)

type Decision int

const (
	Allowed Decision = iota + 1
	DeniedRedirectHome
	DeniedRedirectSignin
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "ALLOWED"
	case DeniedRedirectHome:
		return "DENIED_REDIRECT_HOME"
	case DeniedRedirectSignin:
		return "DENIED_REDIRECT_SIGNIN"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

type Reason string

const (
	ReasonNone        Reason = ""
	ReasonAnonymous   Reason = "anonymous"
	ReasonSignedIn    Reason = "signed_in"
	ReasonNotOwner    Reason = "not_owner"
	ReasonNotAdmin    Reason = "not_admin"
	ReasonSelfDestroy Reason = "self_destroy"
)

// Request is one action attempt. Target is the id of the user the action
// operates on, or uuid.Nil when the action has no user target.
type Request struct {
	Token  string
	Action Action
	Target uuid.UUID
}

type Verdict struct {
	Decision  Decision
	Principal *models.User
	Reason    Reason
}

func (v Verdict) Allowed() bool { return v.Decision == Allowed }

type Resolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type Guard struct {
	Sessions Resolver
	Rules    Rules
}

// Authorize never turns a resolver fault into a denial: when the session
// cannot be resolved the error is returned and the Verdict is empty.
func (g *Guard) Authorize(ctx context.Context, req Request) (Verdict, error) {
	principal, err := g.Sessions.Resolve(ctx, req.Token)
	if err != nil {
		return Verdict{}, fmt.Errorf("authorize %s: %w", req.Action, err)
	}

	capability, err := g.Rules.Lookup(req.Action)
	if err != nil {
		return Verdict{}, err
	}

	v := decide(capability, principal, req)
	if !v.Allowed() {
		logging.FromContext(ctx).Info("access_denied",
			"action", string(req.Action),
			"capability", capability.String(),
			"decision", v.Decision.String(),
			"reason", string(v.Reason),
		)
	}
	return v, nil
}

func decide(capability Capability, principal *models.User, req Request) Verdict {
	allow := Verdict{Decision: Allowed, Principal: principal}
	home := func(r Reason) Verdict { return Verdict{Decision: DeniedRedirectHome, Principal: principal, Reason: r} }
	signin := Verdict{Decision: DeniedRedirectSignin, Reason: ReasonAnonymous}

	switch capability {
	case Public:
		return allow
	case Guest:
		if principal != nil {
			return home(ReasonSignedIn)
		}
		return allow
	case Authenticated:
		if principal == nil {
			return signin
		}
		return allow
	case SelfOrAdmin:
		switch {
		case principal == nil:
			return signin
		case principal.ID == req.Target || principal.Admin:
			return allow
		default:
			return home(ReasonNotOwner)
		}
	case AdminOnly:
		switch {
		case principal == nil:
			return signin
		case !principal.Admin:
			return home(ReasonNotAdmin)
		case req.Action == UsersDestroy && principal.ID == req.Target:
			return home(ReasonSelfDestroy)
		default:
			return allow
		}
	}
	return home(ReasonNone)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, principalKey{}, u)
}

// PrincipalFrom returns the signed-in user, or nil for anonymous requests.
func PrincipalFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(principalKey{}).(*models.User)
	return u
}
