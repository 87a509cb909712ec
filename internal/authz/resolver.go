package authz

import (
	"context"
	"errors"
	"time"

	authzerrors "go-leaveflow/internal/authz/errors"
	"go-leaveflow/internal/user"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	DefaultCacheTTL      = 10 * time.Minute
	DefaultLookupTimeout = 2 * time.Second
)

// Subject is the snapshot of the user row the gate and the fallback path
// reason about.
type Subject struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	LegacyRole string `json:"legacy_role"`
	IsOwner    bool   `json:"is_owner"`
	IsActive   bool   `json:"is_active"`
}

// AuthData is the resolved authorization view for one user. For
// administrator-tier users EffectivePermissions collapses to the single
// wildcard marker.
type AuthData struct {
	User                 Subject  `json:"user"`
	AssignedRoles        []string `json:"assigned_roles"`
	EffectiveRoles       []string `json:"effective_roles"`
	GrantedPermissions   []string `json:"granted_permissions"`
	EffectivePermissions []string `json:"effective_permissions"`
	FromFallback         bool     `json:"from_fallback"`
}

// HasEffectiveRole does a linear scan; effective role sets are tiny.
func (d *AuthData) HasEffectiveRole(role string) bool {
	for _, r := range d.EffectiveRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (d *AuthData) HasWildcard() bool {
	for _, p := range d.EffectivePermissions {
		if p == WildcardAll {
			return true
		}
	}
	return false
}

type Resolver struct {
	repo          Repository
	users         user.Repository
	catalog       *Catalog
	store         Store
	ttl           time.Duration
	lookupTimeout time.Duration
	sf            singleflight.Group
	logger        *zap.Logger
}

type ResolverOption func(*Resolver)

func WithCacheTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) { r.ttl = ttl }
}

func WithLookupTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.lookupTimeout = d }
}

func NewResolver(
	repo Repository,
	users user.Repository,
	catalog *Catalog,
	store Store,
	logger *zap.Logger,
	opts ...ResolverOption,
) *Resolver {
	l := zap.L().Named("authz.resolver")
	if logger != nil {
		l = logger.Named("authz.resolver")
	}
	r := &Resolver{
		repo:          repo,
		users:         users,
		catalog:       catalog,
		store:         store,
		ttl:           DefaultCacheTTL,
		lookupTimeout: DefaultLookupTimeout,
		logger:        l,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadAuthData returns the effective roles and permissions for a user.
// Cache hits are served within the TTL; concurrent misses for the same user
// collapse into one database load. Transient lookup failures degrade to a
// minimal view built from the user row's legacy role and are never surfaced
// to the caller; only an unknown user is an error.
func (r *Resolver) LoadAuthData(ctx context.Context, userID string, useCache bool) (*AuthData, error) {
	if useCache {
		if data, ok := r.store.Get(ctx, userID); ok {
			return data, nil
		}
	}

	v, err, _ := r.sf.Do(userID, func() (any, error) {
		return r.load(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	data := v.(*AuthData)

	if !data.FromFallback {
		r.store.Set(ctx, userID, data, r.ttl)
	}
	return data, nil
}

// Invalidate drops the cached entry so the next load sees fresh role and
// permission state. Call it after any role, permission or profile mutation.
func (r *Resolver) Invalidate(ctx context.Context, userID string) {
	r.store.Delete(ctx, userID)
	r.logger.Debug("auth cache invalidated", zap.String("user_id", userID))
}

func (r *Resolver) load(ctx context.Context, userID string) (*AuthData, error) {
	u, err := r.loadUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authzerrors.ErrUserNotFound
		}
		// The user row itself is unreachable; the fallback has nothing to
		// build from beyond the id.
		r.logger.Error("user lookup failed, degrading to empty grants",
			zap.String("user_id", userID), zap.Error(err))
		return &AuthData{
			User:                 Subject{ID: userID},
			AssignedRoles:        []string{},
			EffectiveRoles:       []string{},
			GrantedPermissions:   []string{},
			EffectivePermissions: []string{},
			FromFallback:         true,
		}, nil
	}

	roles, err := r.loadRoles(ctx, userID)
	if err != nil {
		r.logger.Warn("role lookup failed, using legacy-role fallback",
			zap.String("user_id", userID), zap.Error(err))
		return r.fallback(u), nil
	}

	roleIDs := make([]string, 0, len(roles))
	roleNames := make([]string, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, role.ID.String())
		roleNames = append(roleNames, role.Name)
	}
	// A user with no explicit assignments still carries the legacy role.
	if len(roleNames) == 0 && u.Role != "" {
		roleNames = append(roleNames, u.Role)
	}

	perms, err := r.loadPermissions(ctx, roleIDs)
	if err != nil {
		r.logger.Warn("permission lookup failed, using legacy-role fallback",
			zap.String("user_id", userID), zap.Error(err))
		return r.fallback(u), nil
	}

	granted := make([]string, 0, len(perms))
	for _, p := range perms {
		granted = append(granted, p.Name)
	}

	effectiveRoles := r.catalog.EffectiveRoles(roleNames)

	effectivePerms := granted
	if r.catalog.IsAdminTier(effectiveRoles) || u.IsOwner {
		effectivePerms = []string{WildcardAll}
	}

	return &AuthData{
		User:                 subjectOf(u),
		AssignedRoles:        roleNames,
		EffectiveRoles:       effectiveRoles,
		GrantedPermissions:   granted,
		EffectivePermissions: effectivePerms,
	}, nil
}

// fallback builds the minimal view from the legacy single-role field. It is
// the last line of defense and must never fail.
func (r *Resolver) fallback(u *user.User) *AuthData {
	roleNames := []string{}
	if u.Role != "" {
		roleNames = append(roleNames, u.Role)
	}
	effectiveRoles := r.catalog.EffectiveRoles(roleNames)

	perms := []string{}
	if r.catalog.IsAdminTier(effectiveRoles) || u.IsOwner {
		perms = []string{WildcardAll}
	}

	return &AuthData{
		User:                 subjectOf(u),
		AssignedRoles:        roleNames,
		EffectiveRoles:       effectiveRoles,
		GrantedPermissions:   []string{},
		EffectivePermissions: perms,
		FromFallback:         true,
	}
}

func (r *Resolver) loadUser(ctx context.Context, userID string) (*user.User, error) {
	ctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()
	return r.users.FindByID(ctx, userID)
}

func (r *Resolver) loadRoles(ctx context.Context, userID string) ([]Role, error) {
	ctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()
	return r.repo.GetRolesForUser(ctx, userID)
}

func (r *Resolver) loadPermissions(ctx context.Context, roleIDs []string) ([]Permission, error) {
	ctx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()
	return r.repo.GetPermissionsForRoles(ctx, roleIDs)
}

func subjectOf(u *user.User) Subject {
	return Subject{
		ID:         u.ID.String(),
		FullName:   u.FullName,
		Department: u.Department,
		LegacyRole: u.Role,
		IsOwner:    u.IsOwner,
		IsActive:   u.IsActive,
	}
}
