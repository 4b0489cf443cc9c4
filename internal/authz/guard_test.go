package authz_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/sample_app/internal/authn"
	"github.com/Skotchmaster/sample_app/internal/authz"
	"github.com/Skotchmaster/sample_app/internal/credentials"
	"github.com/Skotchmaster/sample_app/internal/dbtest"
	"github.com/Skotchmaster/sample_app/internal/models"
	"github.com/Skotchmaster/sample_app/internal/repo"
	"github.com/Skotchmaster/sample_app/internal/session"
)

type stubResolver map[string]*models.User

func (s stubResolver) Resolve(_ context.Context, token string) (*models.User, error) {
	return s[token], nil
}

type faultyResolver struct{}

func (faultyResolver) Resolve(context.Context, string) (*models.User, error) {
	return nil, fmt.Errorf("%w: deadline exceeded", repo.ErrUnavailable)
}

func TestAuthorize_DecisionTable(t *testing.T) {
	alice := &models.User{ID: uuid.New(), Name: "alice"}
	bob := &models.User{ID: uuid.New(), Name: "bob"}
	admin := &models.User{ID: uuid.New(), Name: "admin", Admin: true}

	g := &authz.Guard{
		Sessions: stubResolver{"alice": alice, "bob": bob, "admin": admin},
		Rules:    authz.DefaultRules(),
	}

	tests := []struct {
		name   string
		token  string
		action authz.Action
		target uuid.UUID
		want   authz.Decision
		reason authz.Reason
	}{
		{"public anonymous", "", authz.StaticHome, uuid.Nil, authz.Allowed, authz.ReasonNone},
		{"public signed in", "alice", authz.UsersShow, bob.ID, authz.Allowed, authz.ReasonNone},
		{"guest anonymous", "", authz.UsersNew, uuid.Nil, authz.Allowed, authz.ReasonNone},
		{"guest signed in", "alice", authz.UsersCreate, uuid.Nil, authz.DeniedRedirectHome, authz.ReasonSignedIn},
		{"authenticated anonymous", "", authz.UsersIndex, uuid.Nil, authz.DeniedRedirectSignin, authz.ReasonAnonymous},
		{"authenticated signed in", "bob", authz.UsersIndex, uuid.Nil, authz.Allowed, authz.ReasonNone},
		{"self anonymous", "", authz.UsersEdit, alice.ID, authz.DeniedRedirectSignin, authz.ReasonAnonymous},
		{"self own", "alice", authz.UsersEdit, alice.ID, authz.Allowed, authz.ReasonNone},
		{"self other", "alice", authz.UsersUpdate, bob.ID, authz.DeniedRedirectHome, authz.ReasonNotOwner},
		{"self admin on other", "admin", authz.UsersUpdate, bob.ID, authz.Allowed, authz.ReasonNone},
		{"admin only anonymous", "", authz.UsersDestroy, bob.ID, authz.DeniedRedirectSignin, authz.ReasonAnonymous},
		{"admin only non admin", "alice", authz.UsersDestroy, bob.ID, authz.DeniedRedirectHome, authz.ReasonNotAdmin},
		{"admin only non admin self", "alice", authz.UsersDestroy, alice.ID, authz.DeniedRedirectHome, authz.ReasonNotAdmin},
		{"admin destroys other", "admin", authz.UsersDestroy, bob.ID, authz.Allowed, authz.ReasonNone},
		{"admin destroys self", "admin", authz.UsersDestroy, admin.ID, authz.DeniedRedirectHome, authz.ReasonSelfDestroy},
		{"unknown token is anonymous", "stale", authz.MicropostsCreate, uuid.Nil, authz.DeniedRedirectSignin, authz.ReasonAnonymous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := g.Authorize(context.Background(), authz.Request{Token: tt.token, Action: tt.action, Target: tt.target})
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Decision, v.Decision.String())
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

func TestAuthorize_PrincipalOnVerdict(t *testing.T) {
	alice := &models.User{ID: uuid.New()}
	g := &authz.Guard{Sessions: stubResolver{"alice": alice}, Rules: authz.DefaultRules()}

	v, err := g.Authorize(context.Background(), authz.Request{Token: "alice", Action: authz.StaticHome})
	require.NoError(t, err)
	assert.Same(t, alice, v.Principal)

	v, err = g.Authorize(context.Background(), authz.Request{Action: authz.StaticHome})
	require.NoError(t, err)
	assert.Nil(t, v.Principal)
}

func TestAuthorize_UnknownAction(t *testing.T) {
	g := &authz.Guard{Sessions: stubResolver{}, Rules: authz.DefaultRules()}

	_, err := g.Authorize(context.Background(), authz.Request{Action: "reports.export"})
	assert.ErrorIs(t, err, authz.ErrUnknownAction)
}

func TestAuthorize_ResolverFaultIsNotDenial(t *testing.T) {
	g := &authz.Guard{Sessions: faultyResolver{}, Rules: authz.DefaultRules()}

	v, err := g.Authorize(context.Background(), authz.Request{Token: "x", Action: authz.UsersIndex})
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.ErrUnavailable)
	assert.Zero(t, v.Decision)
}

func TestRules_AreCopiedOnConstruction(t *testing.T) {
	m := map[authz.Action]authz.Capability{authz.StaticHome: authz.Public}
	rules := authz.NewRules(m)
	m[authz.StaticHome] = authz.AdminOnly

	c, err := rules.Lookup(authz.StaticHome)
	require.NoError(t, err)
	assert.Equal(t, authz.Public, c)
	assert.False(t, rules.Has(authz.UsersIndex))
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, authz.PrincipalFrom(ctx))

	u := &models.User{ID: uuid.New()}
	assert.Same(t, u, authz.PrincipalFrom(authz.WithPrincipal(ctx, u)))
}

func TestScenario_EditAndSelfDestroy(t *testing.T) {
	ctx := context.Background()
	rp := &repo.GormRepo{DB: dbtest.New(t)}
	sessions := &session.Manager{Store: rp, Secret: []byte("scenario-secret")}
	auth := &authn.Authenticator{Credentials: &credentials.Store{Users: rp}, Sessions: sessions}
	g := &authz.Guard{Sessions: sessions, Rules: authz.DefaultRules()}

	a := dbtest.CreateUser(t, rp, "User A", "a@example.com", false)
	b := dbtest.CreateUser(t, rp, "User B", "b@example.com", false)
	admin := dbtest.CreateUser(t, rp, "Admin", "admin@example.com", true)

	v, err := g.Authorize(ctx, authz.Request{Action: authz.UsersIndex})
	require.NoError(t, err)
	assert.Equal(t, authz.DeniedRedirectSignin, v.Decision)

	asA, err := auth.Authenticate(ctx, a.Email, dbtest.Password, session.Meta{})
	require.NoError(t, err)

	v, err = g.Authorize(ctx, authz.Request{Token: asA.Session.Token, Action: authz.UsersIndex})
	require.NoError(t, err)
	assert.Equal(t, authz.Allowed, v.Decision)

	v, err = g.Authorize(ctx, authz.Request{Token: asA.Session.Token, Action: authz.UsersEdit, Target: b.ID})
	require.NoError(t, err)
	assert.Equal(t, authz.DeniedRedirectHome, v.Decision)

	asAdmin, err := auth.Authenticate(ctx, admin.Email, dbtest.Password, session.Meta{})
	require.NoError(t, err)

	v, err = g.Authorize(ctx, authz.Request{Token: asAdmin.Session.Token, Action: authz.UsersEdit, Target: b.ID})
	require.NoError(t, err)
	assert.Equal(t, authz.Allowed, v.Decision)

	before, err := rp.CountUsers(ctx)
	require.NoError(t, err)

	v, err = g.Authorize(ctx, authz.Request{Token: asAdmin.Session.Token, Action: authz.UsersDestroy, Target: admin.ID})
	require.NoError(t, err)
	assert.Equal(t, authz.DeniedRedirectHome, v.Decision)
	assert.Equal(t, authz.ReasonSelfDestroy, v.Reason)

	after, err := rp.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.NoError(t, sessions.Revoke(ctx, asA.Session.Token))
	v, err = g.Authorize(ctx, authz.Request{Token: asA.Session.Token, Action: authz.UsersIndex})
	require.NoError(t, err)
	assert.Equal(t, authz.DeniedRedirectSignin, v.Decision)
}
