package model

import "gorm.io/gorm"

// AutoMigrate 同步拼团相关表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Activity{}, &Team{}, &Member{})
}
