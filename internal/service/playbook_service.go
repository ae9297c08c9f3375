package service

import (
	"context"
	"strings"

	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/internal/repo"
	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlaybookService 交易规则模板
type PlaybookService struct {
	logger *zap.Logger
	*repo.PlaybookRepo
}

func NewPlaybookService(db *gorm.DB, logger *zap.Logger) *PlaybookService {
	return &PlaybookService{
		logger:       logger,
		PlaybookRepo: repo.NewPlaybookRepo(db),
	}
}

type PlaybookRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description"`
	Rules       []string `json:"rules" validate:"max=50,dive,required,max=500"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=30"`
	IsArchived  bool     `json:"is_archived"`
}

func (r PlaybookRequest) apply(p *models.Playbook) {
	p.Name = strings.TrimSpace(r.Name)
	p.Description = r.Description
	rules := make([]string, 0, len(r.Rules))
	for _, rule := range r.Rules {
		if rule = strings.TrimSpace(rule); rule != "" {
			rules = append(rules, rule)
		}
	}
	p.Rules = rules
	p.Tags = cleanTags(r.Tags)
	p.IsArchived = r.IsArchived
}

func (s *PlaybookService) List(ctx context.Context, userID string, includeArchived bool) ([]models.Playbook, error) {
	playbooks, err := s.PlaybookRepo.FindByUser(ctx, userID, includeArchived)
	if err != nil {
		return nil, err
	}
	if playbooks == nil {
		playbooks = []models.Playbook{}
	}
	return playbooks, nil
}

func (s *PlaybookService) Create(ctx context.Context, userID string, req PlaybookRequest) (*models.Playbook, error) {
	playbook := models.Playbook{
		ID:     ulid.Make().String(),
		UserID: userID,
	}
	req.apply(&playbook)
	if err := s.PlaybookRepo.Create(ctx, &playbook); err != nil {
		return nil, err
	}
	s.logger.Debug("playbook created", zap.String("user_id", userID), zap.String("playbook_id", playbook.ID))
	return &playbook, nil
}

func (s *PlaybookService) Update(ctx context.Context, userID, id string, req PlaybookRequest) (*models.Playbook, error) {
	playbook, err := s.PlaybookRepo.FindByUserAndID(ctx, userID, id)
	if err != nil {
		return nil, notFound(err, xe.ErrNotFound)
	}
	req.apply(&playbook)
	if err := s.PlaybookRepo.Save(ctx, &playbook); err != nil {
		return nil, err
	}
	return &playbook, nil
}

func (s *PlaybookService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.PlaybookRepo.FindByUserAndID(ctx, userID, id); err != nil {
		return notFound(err, xe.ErrNotFound)
	}
	return s.PlaybookRepo.DeleteById(ctx, id)
}
