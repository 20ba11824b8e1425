package models

import "time"

type SourceFile struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Path         string `gorm:"type:text;not null;uniqueIndex"`
	Status       string `gorm:"type:text;not null"`
	DiscoveredAt time.Time
	ClaimedAt    *time.Time
	FinishedAt   *time.Time
	FailReason   *string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (SourceFile) TableName() string {
	return "source_files"
}
