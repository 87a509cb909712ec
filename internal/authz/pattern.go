package authz

import (
	"fmt"
	"strings"
)

// WildcardAll is the single-token pattern meaning "every permission". It is
// also the marker the resolver stores for administrator-tier users so the
// gate can short-circuit without consulting individual grants.
const WildcardAll = "*"

const (
	ScopeOwn = "own"
	ScopeAll = "all"
)

// Pattern is a permission name parsed once into its parts. Names are
// colon-delimited: action:resource with an optional :own / :all suffix.
// Action or resource may be "*" in grant patterns.
type Pattern struct {
	Action   string
	Resource string
	Scope    string
}

func ParsePermission(name string) (Pattern, error) {
	name = strings.TrimSpace(name)
	if name == WildcardAll {
		return Pattern{Action: WildcardAll, Resource: WildcardAll}, nil
	}

	parts := strings.Split(name, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Pattern{}, fmt.Errorf("malformed permission %q: want action:resource[:scope]", name)
	}
	for _, p := range parts {
		if p == "" {
			return Pattern{}, fmt.Errorf("malformed permission %q: empty segment", name)
		}
	}

	p := Pattern{Action: parts[0], Resource: parts[1]}
	if len(parts) == 3 {
		if parts[2] != ScopeOwn && parts[2] != ScopeAll {
			return Pattern{}, fmt.Errorf("malformed permission %q: scope must be own or all", name)
		}
		p.Scope = parts[2]
	}
	return p, nil
}

// Matches reports whether a grant pattern covers the required permission.
// Wildcards are only honored on the grant side.
//
// Scope widens in the order own < unscoped < all: an :own grant covers only
// :own requirements, an unscoped grant additionally covers unscoped ones,
// and an :all grant covers everything. An unscoped grant deliberately does
// NOT cover an :all requirement; holders reach individual resources through
// the ownership and department checks instead.
func (p Pattern) Matches(required Pattern) bool {
	if p.Action == WildcardAll && p.Resource == WildcardAll {
		return true
	}
	if p.Action != WildcardAll && p.Action != required.Action {
		return false
	}
	if p.Resource != WildcardAll && p.Resource != required.Resource {
		return false
	}
	switch p.Scope {
	case ScopeAll:
		return true
	case ScopeOwn:
		return required.Scope == ScopeOwn
	default:
		return required.Scope == "" || required.Scope == ScopeOwn
	}
}

func (p Pattern) String() string {
	s := p.Action + ":" + p.Resource
	if p.Scope != "" {
		s += ":" + p.Scope
	}
	return s
}
