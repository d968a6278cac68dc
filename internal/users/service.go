package users

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/mantenix-erp/mantenix-erp/internal/rbac"
)

// RepositoryPort defines the data access methods the service relies on.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, email, name, role, passwordHash string) (int64, error)
	UpdateRole(ctx context.Context, id int64, role string) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// DefaultGrantAssigner is the permission side of the user lifecycle: it is
// invoked synchronously after creation and after every role change.
type DefaultGrantAssigner interface {
	AssignDefaultPermissions(ctx context.Context, userID int64, role string, grantedBy int64) (int, error)
}

// SessionRevoker drops live sessions after a role change so stale role
// strings do not outlive the change.
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// Service handles user management.
type Service struct {
	repo     RepositoryPort
	assigner DefaultGrantAssigner
	sessions SessionRevoker
	logger   *slog.Logger
}

// NewService builds a Service. sessions may be nil.
func NewService(repo RepositoryPort, assigner DefaultGrantAssigner, sessions SessionRevoker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, assigner: assigner, sessions: sessions, logger: logger}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a user and assigns the default permissions for its role.
// Assignment failure does not fail the creation, but it is never silent:
// the assigner itself retries and falls back to a minimal grant set, and
// whatever still goes wrong is logged here.
func (s *Service) Create(ctx context.Context, email, name, role, password string, createdBy int64) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}
	id, err := s.repo.Create(ctx, email, name, role, string(hash))
	if err != nil {
		return User{}, err
	}

	granted, err := s.assigner.AssignDefaultPermissions(ctx, id, role, createdBy)
	if err != nil {
		s.logger.Error("assign default permissions after create",
			slog.Int64("user_id", id), slog.String("role", role), slog.Any("error", err))
	} else {
		s.logger.Info("default permissions assigned",
			slog.Int64("user_id", id), slog.Int("granted", granted))
	}

	return s.repo.Get(ctx, id)
}

// ChangeRole updates the role and reconciles the grant set with the new
// role's policy.
func (s *Service) ChangeRole(ctx context.Context, userID int64, role string, changedBy int64) (User, error) {
	if err := s.repo.UpdateRole(ctx, userID, role); err != nil {
		return User{}, err
	}

	granted, err := s.assigner.AssignDefaultPermissions(ctx, userID, role, changedBy)
	if err != nil {
		s.logger.Error("assign default permissions after role change",
			slog.Int64("user_id", userID), slog.String("role", role), slog.Any("error", err))
	} else {
		s.logger.Info("role changed, default permissions reconciled",
			slog.Int64("user_id", userID), slog.String("role", role), slog.Int("granted", granted))
	}

	if s.sessions != nil {
		if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
			s.logger.Warn("revoke sessions after role change",
				slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}

	return s.repo.Get(ctx, userID)
}

// SetActive enables or disables an account. Disabled accounts fail every
// authorization check before any grant is consulted.
func (s *Service) SetActive(ctx context.Context, userID int64, active bool) error {
	return s.repo.SetActive(ctx, userID, active)
}

// Actor resolves the fresh authorization identity for a user. Authorization
// always re-reads current state, so a deactivation or role change takes
// effect on the next request.
func (s *Service) Actor(ctx context.Context, userID int64) (rbac.Actor, error) {
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return rbac.Actor{}, err
	}
	return rbac.Actor{ID: u.ID, Role: u.Role, IsActive: u.IsActive}, nil
}
