package equipment

import "context"

// RepositoryPort defines data access for the service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Equipment, error)
	Get(ctx context.Context, id int64) (Equipment, error)
	Create(ctx context.Context, e Equipment) (int64, error)
}

// Service handles equipment business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all active equipment.
func (s *Service) List(ctx context.Context) ([]Equipment, error) {
	return s.repo.List(ctx)
}

// Get returns one asset.
func (s *Service) Get(ctx context.Context, id int64) (Equipment, error) {
	return s.repo.Get(ctx, id)
}

// Create registers an asset.
func (s *Service) Create(ctx context.Context, code, name, location string, serialNumber *string) (Equipment, error) {
	id, err := s.repo.Create(ctx, Equipment{
		Code:         code,
		Name:         name,
		Location:     location,
		SerialNumber: serialNumber,
	})
	if err != nil {
		return Equipment{}, err
	}
	return s.repo.Get(ctx, id)
}
