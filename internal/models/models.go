package models

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type Post struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"            json:"id"`
	Title       string    `gorm:"not null"                            json:"title"`
	FriendlyURL string    `gorm:"column:friendly_url;unique;not null" json:"friendly_url"`
	Content     string    `gorm:"not null"                            json:"content"`
	DateCreated time.Time `gorm:"index;not null"                      json:"date_created"`
	CreatedBy   string    `gorm:"not null"                            json:"created_by"`
}

// RevokedToken rows are written on logout and never updated or deleted.
type RevokedToken struct {
	Token     string    `gorm:"primaryKey" json:"token"`
	RevokedAt time.Time `gorm:"not null"   json:"revoked_at"`
}
