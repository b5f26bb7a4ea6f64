package model

import "time"

// ColumnPreference is an admin's visible column selection for one stream.
type ColumnPreference struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"size:64;uniqueIndex:idx_user_kind" json:"user_id"`
	Kind      string    `gorm:"size:16;uniqueIndex:idx_user_kind" json:"kind"`
	Columns   string    `gorm:"type:text" json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ColumnPreference) TableName() string { return "log_column_preferences" }
