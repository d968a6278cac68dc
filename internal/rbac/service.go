package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mantenix-erp/mantenix-erp/internal/shared"
)

// Service owns the grant store: default assignment on user lifecycle
// events, explicit grant/revoke administration and the derived queries.
type Service struct {
	repo     Repository
	policies PolicyTable
	aliases  *AliasSet
	logger   *slog.Logger
	audit    *shared.AuditLogger
	now      func() time.Time
}

// NewService constructs a Service. The audit logger may be nil.
func NewService(repo Repository, policies PolicyTable, aliases *AliasSet, logger *slog.Logger, audit *shared.AuditLogger) *Service {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		policies: policies,
		aliases:  aliases,
		logger:   logger,
		audit:    audit,
		now:      time.Now,
	}
}

// AssignDefaultPermissions reconciles the user's grants with the policy for
// the given role. It is idempotent: re-running converges to the same grant
// set, reactivating revoked rows instead of duplicating them, and returns
// the number of grants created or reactivated by this call.
//
// A transaction failure is retried once; if that also fails the minimal safe
// set is applied so the user is never left with zero permissions.
func (s *Service) AssignDefaultPermissions(ctx context.Context, userID int64, role string, grantedBy int64) (int, error) {
	key := NormalizeRole(role)
	policy, known := s.policies.Lookup(key)
	if !known {
		// Upstream data-quality problem: the role field should be a closed
		// enumeration. Fall back to the least-privileged policy, never ALL.
		s.logger.Warn("unknown role, using default policy",
			slog.String("role", role),
			slog.String("default_role", s.policies.DefaultRole),
			slog.Int64("user_id", userID))
	}

	granted, err := s.applyPolicy(ctx, userID, grantedBy, policy)
	if err == nil {
		return granted, nil
	}
	if errors.Is(err, ErrEmptyCatalog) {
		// Distinct from a role that legitimately grants nothing: the policy
		// wanted permissions and the catalog had none. Without intervention
		// the user is locked out.
		s.logger.Warn("permission catalog matched nothing for role policy",
			slog.String("role_key", key), slog.Int64("user_id", userID))
		return 0, err
	}

	s.logger.Warn("default grant assignment failed, retrying",
		slog.Int64("user_id", userID), slog.Any("error", err))
	granted, retryErr := s.applyPolicy(ctx, userID, grantedBy, policy)
	if retryErr == nil {
		return granted, nil
	}

	granted, fallbackErr := s.applyPolicy(ctx, userID, grantedBy, Policy{Entries: MinimalGrantEntries()})
	if fallbackErr != nil {
		return 0, fmt.Errorf("rbac: assign defaults for user %d: %w", userID, retryErr)
	}
	s.logger.Error("default grant assignment failed twice, applied minimal grant set",
		slog.Int64("user_id", userID), slog.Any("error", retryErr))
	return granted, nil
}

// applyPolicy runs one assignment transaction: compute the target set from
// the catalog and upsert every grant in it. All or nothing.
func (s *Service) applyPolicy(ctx context.Context, userID, grantedBy int64, policy Policy) (int, error) {
	granted := 0
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		catalog, err := tx.ListCatalog(ctx)
		if err != nil {
			return err
		}
		target := targetSet(catalog, policy, s.aliases)
		if len(target) == 0 {
			if policy.All || len(policy.Entries) > 0 {
				return ErrEmptyCatalog
			}
			return nil
		}
		for _, perm := range target {
			changed, err := tx.UpsertGrant(ctx, userID, perm.ID, grantedBy)
			if err != nil {
				return fmt.Errorf("upsert grant %s: %w", perm.Key(), err)
			}
			if changed {
				granted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return granted, nil
}

// targetSet selects the catalog permissions a policy grants, deduplicated
// by permission identity across overlapping entries.
func targetSet(catalog []Permission, policy Policy, aliases *AliasSet) []Permission {
	if policy.All {
		return catalog
	}
	seen := make(map[int64]struct{})
	var target []Permission
	for _, entry := range policy.Entries {
		modules := aliases.Expand(entry.Module)
		for _, perm := range catalog {
			if _, dup := seen[perm.ID]; dup {
				continue
			}
			if !moduleIn(perm.Module, modules) || !actionIn(perm.Action, entry.Actions) {
				continue
			}
			seen[perm.ID] = struct{}{}
			target = append(target, perm)
		}
	}
	return target
}

func moduleIn(m Module, set []Module) bool {
	for _, candidate := range set {
		if candidate == m {
			return true
		}
	}
	return false
}

func actionIn(a Action, set []Action) bool {
	for _, candidate := range set {
		if candidate == a {
			return true
		}
	}
	return false
}

// Grant creates or reactivates a single grant outside the role defaults.
func (s *Service) Grant(ctx context.Context, userID, permissionID, grantedBy int64) error {
	perm, err := s.repo.GetPermission(ctx, permissionID)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		_, err := tx.UpsertGrant(ctx, userID, permissionID, grantedBy)
		return err
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, grantedBy, "permission.grant", userID, perm)
	return nil
}

// Revoke soft-deactivates a grant. The row is kept so a later re-grant
// reactivates it instead of inserting a duplicate.
func (s *Service) Revoke(ctx context.Context, userID, permissionID int64) error {
	perm, err := s.repo.GetPermission(ctx, permissionID)
	if err != nil {
		return err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		matched, err := tx.DeactivateGrant(ctx, userID, permissionID)
		if err != nil {
			return err
		}
		if !matched {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, 0, "permission.revoke", userID, perm)
	return nil
}

// EffectiveGrants lists the user's valid grants joined with their permissions.
func (s *Service) EffectiveGrants(ctx context.Context, userID int64) ([]EffectiveGrant, error) {
	grants, err := s.repo.ListGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	valid := make([]EffectiveGrant, 0, len(grants))
	for _, eg := range grants {
		if eg.Grant.ValidAt(now) && eg.Permission.IsActive {
			valid = append(valid, eg)
		}
	}
	return valid, nil
}

// ViewableModules lists the distinct modules the user holds a valid view
// grant for, in catalog order.
func (s *Service) ViewableModules(ctx context.Context, userID int64) ([]Module, error) {
	grants, err := s.EffectiveGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[Module]struct{})
	var modules []Module
	for _, eg := range grants {
		if eg.Permission.Action != ActionView {
			continue
		}
		if _, ok := seen[eg.Permission.Module]; ok {
			continue
		}
		seen[eg.Permission.Module] = struct{}{}
		modules = append(modules, eg.Permission.Module)
	}
	return modules, nil
}

// ListCatalog exposes the active permission catalog.
func (s *Service) ListCatalog(ctx context.Context) ([]Permission, error) {
	return s.repo.ListCatalog(ctx)
}

// SeedCatalog upserts the permission universe by (module, action). It must
// run before any default-grant assignment.
func (s *Service) SeedCatalog(ctx context.Context, entries []CatalogEntry) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, entry := range entries {
			if err := tx.UpsertPermission(ctx, entry); err != nil {
				return fmt.Errorf("seed %s:%s: %w", entry.Module, entry.Action, err)
			}
		}
		return nil
	})
}

// SweepExpired deactivates grants whose expiry passed. Housekeeping only:
// authorization already excludes expired grants at read time.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	var swept int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		swept, err = tx.DeactivateExpired(ctx, s.now())
		return err
	})
	return swept, err
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, userID int64, perm Permission) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user_permission",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     map[string]any{"permission": perm.Key()},
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
