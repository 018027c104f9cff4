package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Citation struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	HistoryId  uuid.UUID      `gorm:"type:uuid;not null;index"`
	UserId     uuid.UUID      `gorm:"type:uuid;not null;index"`
	Mode       string         `gorm:"type:varchar(16);not null"`
	Identifier string         `gorm:"type:varchar(512)"`
	InputText  string         `gorm:"type:text"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	Style      string         `gorm:"type:varchar(32);not null"`
	Text       string         `gorm:"type:text;not null"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Citation) TableName() string {
	return "citations"
}
