package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/designcraft/designcraft-backend/pkg/db/models"
)

// SQL persists entries in the kv_entries table managed by pkg/migrate.
type SQL struct {
	conn *gorm.DB
	now  func() time.Time
}

func NewSQL(conn *gorm.DB) (*SQL, error) {
	if conn == nil {
		return nil, errors.New("db connection is required")
	}
	return &SQL{conn: conn, now: time.Now}, nil
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	var entry models.KVEntry
	err := s.conn.WithContext(ctx).Where("entry_key = ?", key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select kv entry: %w", err)
	}
	return entry.Value, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	entry := models.KVEntry{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	err := s.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"entry_value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("upsert kv entry: %w", err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if err := s.conn.WithContext(ctx).Where("entry_key = ?", key).Delete(&models.KVEntry{}).Error; err != nil {
		return fmt.Errorf("delete kv entry: %w", err)
	}
	return nil
}
