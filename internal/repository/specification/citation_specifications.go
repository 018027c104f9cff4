package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByHistoryID struct {
	HistoryID uuid.UUID
}

func (s ByHistoryID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("history_id = ?", s.HistoryID)
}

// UserOwnedBy restricts rows to one owner.
type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}
