package authz

import (
	"context"

	"go-leaveflow/internal/bootstrap"

	"go.uber.org/zap"
)

// Rule names recorded with every decision so the audit trail shows which
// branch granted or denied access.
const (
	RuleAdminWildcard   = "admin_wildcard"
	RuleExactMatch      = "exact_match"
	RulePatternMatch    = "pattern_match"
	RuleOwnership       = "ownership"
	RuleDepartmentScope = "department_scope"
	RuleDeny            = "deny"
)

// ResourceAccessor lets the gate inspect a resource's owner and department
// without knowing its table. Registered per resource type at wiring time.
type ResourceAccessor interface {
	OwnerOf(ctx context.Context, resourceID string) (string, error)
	DepartmentOf(ctx context.Context, resourceID string) (string, error)
}

// ResourceContext carries the optional resource reference for the ownership
// and department-scope rules. The flags state which of the two checks the
// route configured; a registered accessor alone does not opt a route in.
type ResourceContext struct {
	Type            string
	ID              string
	CheckOwnership  bool
	CheckDepartment bool
}

type Decision struct {
	Allowed    bool
	Rule       string
	Permission string
}

type Gate struct {
	catalog   *Catalog
	accessors map[string]ResourceAccessor
	audit     bootstrap.AuditLogger
	logger    *zap.Logger
}

func NewGate(catalog *Catalog, audit bootstrap.AuditLogger, logger *zap.Logger) *Gate {
	l := zap.L().Named("authz.gate")
	if logger != nil {
		l = logger.Named("authz.gate")
	}
	return &Gate{
		catalog:   catalog,
		accessors: make(map[string]ResourceAccessor),
		audit:     audit,
		logger:    l,
	}
}

// RegisterAccessor wires the ownership/department checks for one resource
// type. Called during startup, before any request is served.
func (g *Gate) RegisterAccessor(resourceType string, accessor ResourceAccessor) {
	g.accessors[resourceType] = accessor
}

// Check evaluates the required permission against the resolved auth data.
// Rules run in a fixed order and the first match wins:
//  1. administrator tier / global wildcard
//  2. exact permission name
//  3. role grant patterns (wildcard segments)
//  4. resource ownership
//  5. department scope
//  6. deny
//
// Rules 4 and 5 do not allow on the resource relationship alone: ownership
// additionally requires a grant matching the ":own" variant of the required
// permission, and department scope a grant matching its unscoped variant.
// Owning a resource otherwise turns any ":all" requirement into a pass, and
// sharing a department would admit every colleague.
//
// Every outcome is written to the audit sink; the sink can neither change
// the decision nor fail it.
func (g *Gate) Check(ctx context.Context, auth *AuthData, required string, rc ResourceContext) Decision {
	decision := g.evaluate(ctx, auth, required, rc)

	g.audit.Log(ctx, bootstrap.AuditLog{
		Action:  "AUTHZ_DECISION",
		Actor:   auth.User.ID,
		Message: required,
		Meta: map[string]any{
			"allowed":       decision.Allowed,
			"rule":          decision.Rule,
			"resource_type": rc.Type,
			"resource_id":   rc.ID,
		},
	})

	return decision
}

func (g *Gate) evaluate(ctx context.Context, auth *AuthData, required string, rc ResourceContext) Decision {
	if g.catalog.IsAdminTier(auth.EffectiveRoles) || auth.HasWildcard() {
		return Decision{Allowed: true, Rule: RuleAdminWildcard, Permission: required}
	}

	for _, p := range auth.EffectivePermissions {
		if p == required {
			return Decision{Allowed: true, Rule: RuleExactMatch, Permission: required}
		}
	}

	requiredPattern, err := ParsePermission(required)
	if err != nil {
		g.logger.Error("unparseable required permission, denying",
			zap.String("permission", required), zap.Error(err))
		return Decision{Rule: RuleDeny, Permission: required}
	}

	for _, role := range auth.EffectiveRoles {
		for _, grant := range g.catalog.PatternsFor(role) {
			if grant.Matches(requiredPattern) {
				return Decision{Allowed: true, Rule: RulePatternMatch, Permission: required}
			}
		}
	}

	if rc.ID != "" {
		if accessor, ok := g.accessors[rc.Type]; ok {
			// Ownership narrows an ":own" grant to the concrete resource;
			// department scope does the same for an unscoped grant. Neither
			// rule grants anything the user's patterns do not already cover
			// at that scope.
			ownVariant := Pattern{Action: requiredPattern.Action, Resource: requiredPattern.Resource, Scope: ScopeOwn}
			if rc.CheckOwnership && g.hasGrantMatching(auth, ownVariant) && g.ownsResource(ctx, accessor, auth, rc) {
				return Decision{Allowed: true, Rule: RuleOwnership, Permission: required}
			}
			deptVariant := Pattern{Action: requiredPattern.Action, Resource: requiredPattern.Resource}
			if rc.CheckDepartment && g.hasGrantMatching(auth, deptVariant) && g.inResourceDepartment(ctx, accessor, auth, rc) {
				return Decision{Allowed: true, Rule: RuleDepartmentScope, Permission: required}
			}
		}
	}

	return Decision{Rule: RuleDeny, Permission: required}
}

func (g *Gate) hasGrantMatching(auth *AuthData, p Pattern) bool {
	for _, s := range auth.EffectivePermissions {
		grant, err := ParsePermission(s)
		if err == nil && grant.Matches(p) {
			return true
		}
	}
	for _, role := range auth.EffectiveRoles {
		for _, grant := range g.catalog.PatternsFor(role) {
			if grant.Matches(p) {
				return true
			}
		}
	}
	return false
}

func (g *Gate) ownsResource(ctx context.Context, accessor ResourceAccessor, auth *AuthData, rc ResourceContext) bool {
	owner, err := accessor.OwnerOf(ctx, rc.ID)
	if err != nil {
		g.logger.Warn("ownership lookup failed",
			zap.String("resource_type", rc.Type), zap.String("resource_id", rc.ID), zap.Error(err))
		return false
	}
	return owner != "" && owner == auth.User.ID
}

func (g *Gate) inResourceDepartment(ctx context.Context, accessor ResourceAccessor, auth *AuthData, rc ResourceContext) bool {
	if auth.User.Department == "" {
		return false
	}
	dept, err := accessor.DepartmentOf(ctx, rc.ID)
	if err != nil {
		g.logger.Warn("department lookup failed",
			zap.String("resource_type", rc.Type), zap.String("resource_id", rc.ID), zap.Error(err))
		return false
	}
	return dept != "" && dept == auth.User.Department
}
