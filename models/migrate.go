package models

import "gorm.io/gorm"

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&SalonProfile{},
		&UserRole{},
		&Subscription{},
		&Customer{},
		&ServiceCategory{},
		&Service{},
		&Staff{},
		&Product{},
		&Appointment{},
		&Sale{},
		&SaleItem{},
		&ReminderTemplate{},
		&ReminderLog{},
	)
}
