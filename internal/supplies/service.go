package supplies

import "context"

// RepositoryPort defines data access for the service.
type RepositoryPort interface {
	List(ctx context.Context) ([]Supply, error)
	Get(ctx context.Context, id int64) (Supply, error)
	Create(ctx context.Context, s Supply) (int64, error)
	AdjustQuantity(ctx context.Context, id, delta int64) (Supply, error)
}

// Service handles supply stock logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns all supplies.
func (s *Service) List(ctx context.Context) ([]Supply, error) {
	return s.repo.List(ctx)
}

// Get returns one supply.
func (s *Service) Get(ctx context.Context, id int64) (Supply, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a supply item with an opening quantity.
func (s *Service) Create(ctx context.Context, code, name, unit string, quantity int64) (Supply, error) {
	id, err := s.repo.Create(ctx, Supply{
		Code:     code,
		Name:     name,
		Unit:     unit,
		Quantity: quantity,
	})
	if err != nil {
		return Supply{}, err
	}
	return s.repo.Get(ctx, id)
}

// Adjust applies a signed stock delta.
func (s *Service) Adjust(ctx context.Context, id, delta int64) (Supply, error) {
	return s.repo.AdjustQuantity(ctx, id, delta)
}
