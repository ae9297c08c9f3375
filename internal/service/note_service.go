package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dushixiang/tradejournal/internal/models"
	"github.com/dushixiang/tradejournal/internal/repo"
	"github.com/dushixiang/tradejournal/internal/xe"
	"github.com/dushixiang/tradejournal/pkg/journal"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NoteService 复盘笔记，每个用户每个交易日（每个账户）一篇
type NoteService struct {
	logger *zap.Logger

	*orz.Service
	*repo.JournalNoteRepo
	accountRepo *repo.AccountRepo
}

func NewNoteService(db *gorm.DB, logger *zap.Logger) *NoteService {
	return &NoteService{
		logger:          logger,
		Service:         orz.NewService(db),
		JournalNoteRepo: repo.NewJournalNoteRepo(db),
		accountRepo:     repo.NewAccountRepo(db),
	}
}

// NoteRequest 保存笔记
type NoteRequest struct {
	AccountID string   `json:"account_id" validate:"max=26"`
	Title     string   `json:"title" validate:"max=200"`
	Content   string   `json:"content"`
	Mood      string   `json:"mood" validate:"max=20"`
	Tags      []string `json:"tags" validate:"max=20,dive,max=30"`
}

func validDate(date string) bool {
	_, err := time.Parse(journal.DateLayout, date)
	return err == nil
}

func cleanTags(tags []string) datatypes.JSONSlice[string] {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}

// List from/to 为空时不限制
func (s *NoteService) List(ctx context.Context, userID, from, to string) ([]models.JournalNote, error) {
	if (from != "" && !validDate(from)) || (to != "" && !validDate(to)) {
		return nil, xe.ErrInvalidDate
	}
	notes, err := s.JournalNoteRepo.FindByUser(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []models.JournalNote{}
	}
	return notes, nil
}

func (s *NoteService) Get(ctx context.Context, userID, date, accountID string) (*models.JournalNote, error) {
	if !validDate(date) {
		return nil, xe.ErrInvalidDate
	}
	note, err := s.JournalNoteRepo.FindByDate(ctx, userID, date, accountID)
	if err != nil {
		return nil, notFound(err, xe.ErrNotFound)
	}
	return &note, nil
}

// Upsert 同一天已有笔记时覆盖内容
func (s *NoteService) Upsert(ctx context.Context, userID, date string, req NoteRequest) (*models.JournalNote, error) {
	if !validDate(date) {
		return nil, xe.ErrInvalidDate
	}
	if req.AccountID != "" {
		if _, err := s.accountRepo.FindByUserAndID(ctx, userID, req.AccountID); err != nil {
			return nil, notFound(err, xe.ErrPermissionDenied)
		}
	}

	var note models.JournalNote
	err := s.Transaction(ctx, func(ctx context.Context) error {
		existing, err := s.JournalNoteRepo.FindByDate(ctx, userID, date, req.AccountID)
		switch {
		case err == nil:
			note = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			note = models.JournalNote{
				ID:        ulid.Make().String(),
				UserID:    userID,
				TradeDate: date,
				AccountID: req.AccountID,
			}
		default:
			return err
		}

		note.Title = strings.TrimSpace(req.Title)
		note.Content = req.Content
		note.Mood = req.Mood
		note.Tags = cleanTags(req.Tags)
		return s.JournalNoteRepo.Save(ctx, &note)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("journal note saved", zap.String("user_id", userID), zap.String("trade_date", date))
	return &note, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.JournalNoteRepo.FindByUserAndID(ctx, userID, id); err != nil {
		return notFound(err, xe.ErrNotFound)
	}
	return s.JournalNoteRepo.DeleteById(ctx, id)
}
