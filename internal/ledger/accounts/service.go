package accounts

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ResolveByCode(ctx context.Context, code string) (Account, error) {
	return s.repo.ResolveByCode(ctx, code)
}

func (s *Service) ListByClass(ctx context.Context, class Class) ([]Account, error) {
	return s.repo.ListByClass(ctx, class)
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Deactivate retires an account from future postings while keeping its
// history queryable.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

// Delete removes an account that has never been posted against; referenced
// accounts can only be deactivated.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
