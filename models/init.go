package models

import (
	"organizer/db"

	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

// Init creates or migrates the schema on Instance
func Init() {
	if err := Migrate(db.Instance); err != nil {
		klog.Fatalf("Auto-migrate error: %v", err)
	}
}

func Migrate(tx *gorm.DB) error {
	return tx.AutoMigrate(&Folder{}, &Photo{}, &Tag{}, &PhotoTag{}, &Setting{})
}
