package service

import (
	"context"

	"fellowship/internal/consistency"
	"fellowship/internal/models"
	"fellowship/internal/repository"
)

type XpService struct {
	xpRepo repository.XpRepository
}

func NewXpService(xpRepo repository.XpRepository) *XpService {
	return &XpService{xpRepo: xpRepo}
}

// RecordEvent appends an XP event and folds it into the user's totals.
func (s *XpService) RecordEvent(ctx context.Context, in consistency.XpEventInput) (_ *models.XpEvent, err error) {
	ctx, done := traced(ctx, "XpService", "RecordEvent")
	defer func() { done(err) }()

	return s.xpRepo.Record(ctx, in)
}

func (s *XpService) Totals(ctx context.Context, userID uint) (*models.XpTotals, error) {
	return s.xpRepo.Totals(ctx, userID)
}

func (s *XpService) Events(ctx context.Context, userID uint, limit, offset int) ([]*models.XpEvent, error) {
	return s.xpRepo.ListEvents(ctx, userID, limit, offset)
}
