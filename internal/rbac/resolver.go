package rbac

import (
	"context"
	"log/slog"
	"time"
)

// Resolver decides allow/deny for (actor, module, action) requests. It is
// read-only and safe to call on every protected request; storage failures
// deny (fail closed) rather than propagate.
type Resolver struct {
	repo    Repository
	aliases *AliasSet
	cfg     ResolverConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewResolver constructs a Resolver.
func NewResolver(repo Repository, aliases *AliasSet, cfg ResolverConfig, logger *slog.Logger) *Resolver {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{repo: repo, aliases: aliases, cfg: cfg, logger: logger, now: time.Now}
}

// Authorize runs the decision chain: admin bypass, valid grants with alias
// expansion, explicit carve-outs, role fallbacks, then denial.
func (r *Resolver) Authorize(ctx context.Context, actor Actor, module Module, action Action) Decision {
	if !actor.IsActive {
		return Deny(module, action)
	}

	roleKey := NormalizeRole(actor.Role)
	if r.cfg.AdminRole != "" && roleKey == r.cfg.AdminRole {
		return Allow()
	}

	grants, err := r.repo.ListGrants(ctx, actor.ID)
	if err != nil {
		r.logger.Error("authorize: load grants",
			slog.Int64("user_id", actor.ID), slog.Any("error", err))
		return Deny(module, action)
	}
	now := r.now()
	valid := make([]EffectiveGrant, 0, len(grants))
	for _, eg := range grants {
		if eg.Grant.ValidAt(now) && eg.Permission.IsActive {
			valid = append(valid, eg)
		}
	}

	requested := r.aliases.Expand(module)
	for _, eg := range valid {
		if eg.Permission.Action == action && moduleIn(eg.Permission.Module, requested) {
			return Allow()
		}
	}

	for _, carveOut := range r.cfg.CarveOuts {
		if !moduleIn(carveOut.Group, requested) {
			continue
		}
		for _, held := range carveOut.HeldAny {
			if holdsCapability(valid, r.aliases, held) {
				return Allow()
			}
		}
	}

	for _, implied := range r.cfg.RoleFallbacks[roleKey] {
		if implied.Action == action && moduleIn(implied.Module, requested) {
			return Allow()
		}
	}

	return Deny(module, action)
}

func holdsCapability(grants []EffectiveGrant, aliases *AliasSet, cap Capability) bool {
	for _, eg := range grants {
		if eg.Permission.Action == cap.Action && aliases.SameGroup(eg.Permission.Module, cap.Module) {
			return true
		}
	}
	return false
}
