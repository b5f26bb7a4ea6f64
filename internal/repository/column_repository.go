package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carbon-admin-console/internal/model"
)

type ColumnRepository interface {
	// Get returns the saved columns; found is false when the admin never
	// saved a selection for kind.
	Get(ctx context.Context, userID string, kind model.LogKind) (cols []string, found bool, err error)
	Save(ctx context.Context, userID string, kind model.LogKind, cols []string) error
}

type columnRepository struct {
	db *gorm.DB
}

func NewColumnRepository(db *gorm.DB) ColumnRepository {
	return &columnRepository{db: db}
}

func (r *columnRepository) Get(ctx context.Context, userID string, kind model.LogKind) ([]string, bool, error) {
	var pref model.ColumnPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, string(kind)).
		First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load column preference: %w", err)
	}
	var cols []string
	if err := json.Unmarshal([]byte(pref.Columns), &cols); err != nil {
		return nil, false, fmt.Errorf("decode column preference: %w", err)
	}
	return cols, true, nil
}

func (r *columnRepository) Save(ctx context.Context, userID string, kind model.LogKind, cols []string) error {
	if cols == nil {
		cols = []string{}
	}
	data, err := json.Marshal(cols)
	if err != nil {
		return err
	}
	pref := model.ColumnPreference{UserID: userID, Kind: string(kind), Columns: string(data)}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
		DoUpdates: clause.AssignmentColumns([]string{"columns", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		return fmt.Errorf("save column preference: %w", err)
	}
	return nil
}
