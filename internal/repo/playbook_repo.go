package repo

import (
	"context"

	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewPlaybookRepo(db *gorm.DB) *PlaybookRepo {
	return &PlaybookRepo{
		Repository: orz.NewRepository[models.Playbook, string](db),
	}
}

type PlaybookRepo struct {
	orz.Repository[models.Playbook, string]
}

func (r PlaybookRepo) FindByUser(ctx context.Context, userID string, includeArchived bool) ([]models.Playbook, error) {
	var playbooks []models.Playbook
	db := r.GetDB(ctx).Table(r.GetTableName()).Where("user_id = ?", userID)
	if !includeArchived {
		db = db.Where("is_archived = ?", false)
	}
	err := db.Order("created_at DESC").Find(&playbooks).Error
	return playbooks, err
}

func (r PlaybookRepo) FindByUserAndID(ctx context.Context, userID, id string) (m models.Playbook, err error) {
	err = r.GetDB(ctx).Table(r.GetTableName()).
		Where("user_id = ? AND id = ?", userID, id).
		First(&m).Error
	return m, err
}
