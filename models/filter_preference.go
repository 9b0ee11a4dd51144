package models

import "time"

// FilterPreference keeps the last area and time slot an operator picked so
// the board opens the same way next time.
type FilterPreference struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	OperatorKey string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"operator_key"`
	AreaID      string    `gorm:"type:varchar(64);not null;default:'all'" json:"area"`
	Slot        string    `gorm:"type:varchar(20);not null;default:'all'" json:"slot"`
	CreatedAt   time.Time `gorm:"not null" json:"-"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}
