package database

import (
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
)

// AutoMigrate creates the tables the floor service owns. Reservations
// themselves live in the backend and are never stored here.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.FilterPreference{}); err != nil {
		return err
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
