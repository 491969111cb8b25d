package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haven-social/warden/rulemod"
)

type eventRow struct {
	ID          string `gorm:"primaryKey"`
	Type        string `gorm:"index"`
	ContentID   string
	ContentType string
	UserID      string    `gorm:"index"`
	OccurredAt  time.Time `gorm:"index"`
	Bundle      []byte
}

func (eventRow) TableName() string {
	return "moderation_events"
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&eventRow{}); err != nil {
		return nil, err
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) Append(ctx context.Context, evt *rulemod.ModerationEvent) error {
	bundle, err := json.Marshal(evt.Bundle)
	if err != nil {
		return fmt.Errorf("serializing context bundle: %w", err)
	}
	row := eventRow{
		ID:          evt.ID,
		Type:        string(evt.Type),
		ContentID:   evt.ContentID,
		ContentType: evt.ContentType,
		UserID:      evt.UserID,
		OccurredAt:  evt.OccurredAt,
		Bundle:      bundle,
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	return s.DB.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) ListWindow(ctx context.Context, since, until time.Time) ([]*rulemod.ModerationEvent, error) {
	var rows []eventRow
	err := s.DB.WithContext(ctx).
		Where("occurred_at >= ? AND occurred_at < ?", since, until).
		Order("occurred_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*rulemod.ModerationEvent, 0, len(rows))
	for i := range rows {
		evt := rulemod.ModerationEvent{
			ID:          rows[i].ID,
			Type:        rulemod.TriggerEvent(rows[i].Type),
			ContentID:   rows[i].ContentID,
			ContentType: rows[i].ContentType,
			UserID:      rows[i].UserID,
			OccurredAt:  rows[i].OccurredAt,
		}
		if len(rows[i].Bundle) > 0 {
			if err := json.Unmarshal(rows[i].Bundle, &evt.Bundle); err != nil {
				return nil, fmt.Errorf("parsing context bundle for event %s: %w", rows[i].ID, err)
			}
		}
		out = append(out, &evt)
	}
	return out, nil
}

func (s *GormStore) TrimBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("occurred_at < ?", cutoff).Delete(&eventRow{})
	return res.RowsAffected, res.Error
}
