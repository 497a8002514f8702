// models/migrate.go
package models

import "gorm.io/gorm"

// Migrate creates or updates every table the server uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Product{},
		&JobCard{},
		&JobCardItem{},
		&CustomerAlert{},
		&OutboxEvent{},
	)
}
