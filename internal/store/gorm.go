package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"attendance-bot/internal/model"
)

const saveBatchSize = 200

// gormBackend implements Backend on the session_records table.
type gormBackend struct {
	db *gorm.DB
}

// NewGormBackend creates a GORM-backed ledger backend.
func NewGormBackend(db *gorm.DB) Backend {
	return &gormBackend{db: db}
}

// Load returns all rows in ledger order.
func (s *gormBackend) Load(ctx context.Context) ([]model.SessionRecord, error) {
	var rows []model.SessionRecord
	if err := s.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch session records: %w", err)
	}
	return rows, nil
}

// Save replaces the table contents in a single transaction.
func (s *gormBackend) Save(ctx context.Context, rows []model.SessionRecord) error {
	records := make([]model.SessionRecord, len(rows))
	for i, r := range rows {
		r.Seq = int64(i + 1)
		records[i] = r
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.SessionRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear session records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(records, saveBatchSize).Error; err != nil {
			return fmt.Errorf("failed to write %d session records: %w", len(records), err)
		}
		return nil
	})
}
