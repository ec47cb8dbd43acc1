package db

import (
	"log"
	"time"

	"github.com/BeautifulStudio01/salon-scheduler/internal/config"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewDB(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	db.Exec(`
        UPDATE studios
        SET timezone = 'America/Argentina/Buenos_Aires'
        WHERE timezone IS NULL OR timezone = ''
    `)

	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Studio{},
		&models.User{},
		&models.Client{},
		&models.Room{},
		&models.Service{},
		&models.WorkingHours{},
		&models.Appointment{},
		&models.ReassignmentLog{},
		&models.AuditLog{},
	)
}
