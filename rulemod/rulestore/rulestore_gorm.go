package rulestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/haven-social/warden/rulemod"
)

// Rules are stored row-per-rule with conditions and actions serialized as
// JSON columns; they are always read and written whole, never queried by
// condition contents.
type ruleRow struct {
	ID               string `gorm:"primaryKey"`
	Name             string `gorm:"uniqueIndex"`
	Description      string
	Priority         int
	IsActive         bool `gorm:"index"`
	FailClosed       bool
	TriggerEvent     string `gorm:"index"`
	TriggerFrequency string
	Conditions       []byte
	Actions          []byte
	Version          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (ruleRow) TableName() string {
	return "moderation_rules"
}

func rowFromRule(rule *rulemod.ModerationRule) (*ruleRow, error) {
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return nil, fmt.Errorf("serializing conditions: %w", err)
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return nil, fmt.Errorf("serializing actions: %w", err)
	}
	return &ruleRow{
		ID:               rule.ID,
		Name:             rule.Name,
		Description:      rule.Description,
		Priority:         rule.Priority,
		IsActive:         rule.IsActive,
		FailClosed:       rule.FailClosed,
		TriggerEvent:     string(rule.TriggerEvent),
		TriggerFrequency: string(rule.TriggerFrequency),
		Conditions:       conditions,
		Actions:          actions,
		Version:          rule.Version,
		CreatedAt:        rule.CreatedAt,
		UpdatedAt:        rule.UpdatedAt,
	}, nil
}

func (row *ruleRow) toRule() (*rulemod.ModerationRule, error) {
	rule := rulemod.ModerationRule{
		ID:               row.ID,
		Name:             row.Name,
		Description:      row.Description,
		Priority:         row.Priority,
		IsActive:         row.IsActive,
		FailClosed:       row.FailClosed,
		TriggerEvent:     rulemod.TriggerEvent(row.TriggerEvent),
		TriggerFrequency: rulemod.TriggerFrequency(row.TriggerFrequency),
		Version:          row.Version,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if len(row.Conditions) > 0 {
		if err := json.Unmarshal(row.Conditions, &rule.Conditions); err != nil {
			return nil, fmt.Errorf("parsing conditions for rule %s: %w", row.ID, err)
		}
	}
	if len(row.Actions) > 0 {
		if err := json.Unmarshal(row.Actions, &rule.Actions); err != nil {
			return nil, fmt.Errorf("parsing actions for rule %s: %w", row.ID, err)
		}
	}
	return &rule, nil
}

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&ruleRow{}); err != nil {
		return nil, err
	}
	return &GormStore{DB: db}, nil
}

func (s *GormStore) Create(ctx context.Context, rule *rulemod.ModerationRule) error {
	if err := rulemod.ValidateRule(rule); err != nil {
		return err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rule.Version = 1
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	row, err := rowFromRule(rule)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Create(row).Error
}

func (s *GormStore) Update(ctx context.Context, rule *rulemod.ModerationRule) error {
	if err := rulemod.ValidateRule(rule); err != nil {
		return err
	}
	prev, err := s.Get(ctx, rule.ID)
	if err != nil {
		return err
	}
	rule.Version = prev.Version + 1
	rule.CreatedAt = prev.CreatedAt
	rule.UpdatedAt = time.Now().UTC()
	row, err := rowFromRule(rule)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Save(row).Error
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Delete(&ruleRow{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*rulemod.ModerationRule, error) {
	var row ruleRow
	if err := s.DB.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.toRule()
}

func (s *GormStore) List(ctx context.Context) ([]*rulemod.ModerationRule, error) {
	var rows []ruleRow
	if err := s.DB.WithContext(ctx).Order("created_at asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*rulemod.ModerationRule, 0, len(rows))
	for i := range rows {
		rule, err := rows[i].toRule()
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}
