package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicely/internal/callercontext"
	"github.com/smallbiznis/invoicely/internal/client/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("client.service"),
		repo: p.Repo,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (domain.Client, error) {
	userID, ok := callercontext.CallerIDFromContext(ctx)
	if !ok {
		return domain.Client{}, domain.ErrInvalidCaller
	}
	if id == 0 {
		return domain.Client{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return domain.Client{}, err
	}
	if item == nil {
		return domain.Client{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Client, error) {
	userID, ok := callercontext.CallerIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidCaller
	}
	return s.repo.List(ctx, s.db, userID)
}

func (s *Service) Counts(ctx context.Context) (domain.Counts, error) {
	userID, ok := callercontext.CallerIDFromContext(ctx)
	if !ok {
		return domain.Counts{}, domain.ErrInvalidCaller
	}
	return s.repo.Count(ctx, s.db, userID)
}
