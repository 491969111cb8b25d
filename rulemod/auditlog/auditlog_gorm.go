package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type auditRow struct {
	ID        string `gorm:"primaryKey"`
	EventID   string `gorm:"index"`
	RuleID    string `gorm:"index"`
	Action    string
	Target    string
	TargetID  string
	Outcome   string
	Detail    string
	Attempts  int
	CreatedAt time.Time
}

func (auditRow) TableName() string {
	return "audit_records"
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&auditRow{}); err != nil {
		return nil, err
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) Append(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row := auditRow(rec)
	return s.DB.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) ListByEvent(ctx context.Context, eventID string) ([]Record, error) {
	var rows []auditRow
	if err := s.DB.WithContext(ctx).Where("event_id = ?", eventID).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = Record(row)
	}
	return out, nil
}
