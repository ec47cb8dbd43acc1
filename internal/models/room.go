package models

import "time"

type Room struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	StudioID uint `json:"studio_id"`

	Name     string `gorm:"size:100;not null" json:"name"`
	Capacity int    `gorm:"default:1" json:"capacity"`
	Active   bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
