// Package models contains the database representation of directory records,
// configured to work using GORM as the ORM.
package models

import (
	"time"
)

// Company is a directory record as stored in SQL. Ordinal keeps the order the
// records had in the seed file so listings match the file store.
type Company struct {
	ID          int64  `gorm:"primaryKey;autoIncrement:false"`
	Ordinal     int    `gorm:"index"`
	Name        string `gorm:"size:255;not null"`
	Industry    string `gorm:"size:255;index"`
	Location    string `gorm:"size:255;index"`
	Size        string `gorm:"size:64"`
	SizeNumeric bool
	Rating      float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName pins the table name.
func (Company) TableName() string {
	return "companies"
}
