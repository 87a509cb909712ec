package authz

import (
	"fmt"
	"sort"

	"go-leaveflow/internal/user"
)

// Config is the declarative role model: hierarchy, grant patterns and the
// administrator tier. It is validated once at startup; a bad config is a
// fatal configuration error, never a runtime one.
type Config struct {
	// RoleHierarchy maps a role to the roles it inherits. Must be acyclic.
	RoleHierarchy map[string][]string
	// RolePatterns maps a role to its permission grant patterns.
	RolePatterns map[string][]string
	// AdminRoles collapse to the global wildcard during resolution.
	AdminRoles []string
}

// Catalog is the validated, immutable form of Config shared by the resolver
// and the gate.
type Catalog struct {
	hierarchy  map[string][]string
	patterns   map[string][]Pattern
	adminRoles map[string]struct{}
}

func NewCatalog(cfg Config) (*Catalog, error) {
	if err := validateAcyclic(cfg.RoleHierarchy); err != nil {
		return nil, err
	}

	patterns := make(map[string][]Pattern, len(cfg.RolePatterns))
	for role, raw := range cfg.RolePatterns {
		parsed := make([]Pattern, 0, len(raw))
		for _, name := range raw {
			p, err := ParsePermission(name)
			if err != nil {
				return nil, fmt.Errorf("role %q: %w", role, err)
			}
			parsed = append(parsed, p)
		}
		patterns[role] = parsed
	}

	admins := make(map[string]struct{}, len(cfg.AdminRoles))
	for _, r := range cfg.AdminRoles {
		admins[r] = struct{}{}
	}

	hierarchy := make(map[string][]string, len(cfg.RoleHierarchy))
	for role, inherited := range cfg.RoleHierarchy {
		hierarchy[role] = append([]string(nil), inherited...)
	}

	return &Catalog{
		hierarchy:  hierarchy,
		patterns:   patterns,
		adminRoles: admins,
	}, nil
}

// EffectiveRoles returns the assigned roles plus everything they inherit,
// deduplicated and sorted for deterministic output.
func (c *Catalog) EffectiveRoles(assigned []string) []string {
	seen := make(map[string]struct{})
	var walk func(role string)
	walk = func(role string) {
		if _, ok := seen[role]; ok {
			return
		}
		seen[role] = struct{}{}
		for _, parent := range c.hierarchy[role] {
			walk(parent)
		}
	}
	for _, r := range assigned {
		walk(r)
	}

	out := make([]string, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// PatternsFor returns the grant patterns configured for one role.
func (c *Catalog) PatternsFor(role string) []Pattern {
	return c.patterns[role]
}

// IsAdminTier reports whether any of the given roles belongs to the
// administrator tier.
func (c *Catalog) IsAdminTier(roles []string) bool {
	for _, r := range roles {
		if _, ok := c.adminRoles[r]; ok {
			return true
		}
	}
	return false
}

// validateAcyclic rejects inheritance cycles with a three-color DFS so
// EffectiveRoles is guaranteed to terminate.
func validateAcyclic(hierarchy map[string][]string) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(hierarchy))

	var visit func(role string, trail []string) error
	visit = func(role string, trail []string) error {
		switch color[role] {
		case gray:
			return fmt.Errorf("role hierarchy cycle: %v -> %s", trail, role)
		case black:
			return nil
		}
		color[role] = gray
		for _, parent := range hierarchy[role] {
			if err := visit(parent, append(trail, role)); err != nil {
				return err
			}
		}
		color[role] = black
		return nil
	}

	roles := make([]string, 0, len(hierarchy))
	for r := range hierarchy {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	for _, r := range roles {
		if err := visit(r, nil); err != nil {
			return err
		}
	}
	return nil
}

// DefaultConfig is the shipped role model. Deployments can replace it at
// wiring time; NewCatalog still validates whatever is supplied.
func DefaultConfig() Config {
	return Config{
		RoleHierarchy: map[string][]string{
			user.RoleOwner:             {user.RoleAdmin},
			user.RoleAdmin:             {user.RoleHRManager},
			user.RoleHRManager:         {user.RoleEmployee},
			user.RoleDepartmentManager: {user.RoleEmployee},
			user.RoleEmployee:          {},
		},
		RolePatterns: map[string][]string{
			user.RoleOwner: {WildcardAll},
			user.RoleAdmin: {WildcardAll},
			user.RoleHRManager: {
				"read:leave_request:all",
				"approve:leave_request",
				"read:leave_balance:all",
				"adjust:leave_balance",
				"read:user:all",
				"read:report",
			},
			user.RoleDepartmentManager: {
				"read:leave_request",
				"approve:leave_request",
				"read:user",
			},
			user.RoleEmployee: {
				"create:leave_request",
				"read:leave_request:own",
				"cancel:leave_request:own",
				"read:leave_balance:own",
			},
		},
		AdminRoles: []string{user.RoleOwner, user.RoleAdmin},
	}
}
