package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/finsight/invoice-pipeline/internal/core/domain"
	"github.com/finsight/invoice-pipeline/internal/core/ports"
)

// SynonymService manages the user-editable term mapping table. A create
// whose term already exists (case-insensitively) is coalesced into an
// update of that row instead of surfacing a conflict.
type SynonymService struct {
	repo ports.SynonymRepository
}

func NewSynonymService(repo ports.SynonymRepository) *SynonymService {
	return &SynonymService{repo: repo}
}

func (s *SynonymService) Upsert(ctx context.Context, term, canonical string) (*domain.Synonym, error) {
	term = strings.TrimSpace(term)
	canonical = strings.TrimSpace(canonical)
	if term == "" || canonical == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upsert synonym", fmt.Errorf("term and canonical are required"))
	}

	synonym, err := s.repo.Upsert(ctx, term, canonical)
	if err != nil {
		return nil, fmt.Errorf("upsert synonym: %w", err)
	}
	return synonym, nil
}

func (s *SynonymService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete synonym", fmt.Errorf("id is required"))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete synonym: %w", err)
	}
	return nil
}

func (s *SynonymService) List(ctx context.Context) ([]domain.Synonym, error) {
	synonyms, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list synonyms: %w", err)
	}
	return synonyms, nil
}
