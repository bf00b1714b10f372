package database

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cardledger/internal/models"
)

var DB *gorm.DB

// DSN appends the connection options the stores rely on: transactions
// take the write lock at BEGIN, so two writers that both read then
// write the same row queue behind each other instead of deadlocking
// into SQLITE_BUSY, and a queued writer waits up to the busy timeout.
func DSN(dbPath string) string {
	return dbPath + "?_txlock=immediate&_busy_timeout=5000"
}

func Initialize(dbPath string) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(DSN(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	log.Println("Database connected successfully")

	err = DB.AutoMigrate(&models.CollectionEntry{}, &models.PriceHistoryRecord{})
	if err != nil {
		return err
	}

	if err := RunMigrations(DB); err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}

func GetDB() *gorm.DB {
	return DB
}
