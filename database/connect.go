// file: database/connect.go
package database

import (
	"CTFVM/models"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	dsn := os.Getenv("CTFVM_MYSQL_DSN")
	if dsn == "" {
		dsn = "root:123456@tcp(localhost:3306)/ctfvm?charset=utf8mb4&parseTime=True&loc=Local"
	}

	var err error
	// TranslateError 让唯一索引冲突以 gorm.ErrDuplicatedKey 暴露出来，
	// "每用户一台 VM" 的最终仲裁依赖它
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB:", err)
	}

	// 连接池配置：SetConnMaxLifetime 设为 1 小时以规避 MySQL wait_timeout
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection successfully established and connection pool configured.")
}

func MigrateTables() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Challenge{},
		&models.GlobalConfig{},
		&models.ChallengeVM{},
		&models.VM{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	log.Println("Database migration completed.")
}
