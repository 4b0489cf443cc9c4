// Package authz decides whether a principal may perform an action.
package authz

import (
	"errors"
	"fmt"
)

type Capability int

const (
	Public Capability = iota + 1
	// Guest actions are for anonymous visitors; signed-in users are sent home.
	Guest
	Authenticated
	SelfOrAdmin
	AdminOnly
)

func (c Capability) String() string {
	switch c {
	case Public:
		return "PUBLIC"
	case Guest:
		return "GUEST"
	case Authenticated:
		return "AUTHENTICATED"
	case SelfOrAdmin:
		return "SELF_OR_ADMIN"
	case AdminOnly:
		return "ADMIN_ONLY"
	default:
		return fmt.Sprintf("Capability(%d)", int(c))
	}
}

type Action string

const (
	StaticHome        Action = "static.home"
	SessionsNew       Action = "sessions.new"
	SessionsCreate    Action = "sessions.create"
	SessionsDestroy   Action = "sessions.destroy"
	UsersIndex        Action = "users.index"
	UsersSearch       Action = "users.search"
	UsersNew          Action = "users.new"
	UsersCreate       Action = "users.create"
	UsersShow         Action = "users.show"
	UsersEdit         Action = "users.edit"
	UsersUpdate       Action = "users.update"
	UsersDestroy      Action = "users.destroy"
	MicropostsCreate  Action = "microposts.create"
	MicropostsDestroy Action = "microposts.destroy"
)

var ErrUnknownAction = errors.New("unknown action")

// Rules maps every action to the capability it requires. A Rules value is
// never mutated after construction.
type Rules struct {
	m map[Action]Capability
}

func NewRules(m map[Action]Capability) Rules {
	cp := make(map[Action]Capability, len(m))
	for a, c := range m {
		cp[a] = c
	}
	return Rules{m: cp}
}

func DefaultRules() Rules {
	return NewRules(map[Action]Capability{
		StaticHome:        Public,
		SessionsNew:       Public,
		SessionsCreate:    Public,
		SessionsDestroy:   Public,
		UsersIndex:        Authenticated,
		UsersSearch:       Authenticated,
		UsersNew:          Guest,
		UsersCreate:       Guest,
		UsersShow:         Public,
		UsersEdit:         SelfOrAdmin,
		UsersUpdate:       SelfOrAdmin,
		UsersDestroy:      AdminOnly,
		MicropostsCreate:  Authenticated,
		MicropostsDestroy: Authenticated,
	})
}

func (r Rules) Lookup(a Action) (Capability, error) {
	c, ok := r.m[a]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownAction, a)
	}
	return c, nil
}

func (r Rules) Has(a Action) bool {
	_, ok := r.m[a]
	return ok
}
