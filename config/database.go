package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the durable store. MySQL when DB_DRIVER=mysql, otherwise a
// local SQLite file, which is what a single-shop install runs on.
func InitDB() (*gorm.DB, error) {
	if os.Getenv("DB_DRIVER") == "mysql" {
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_NAME"),
		)
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	}

	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "isabet.db"
	}
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}
