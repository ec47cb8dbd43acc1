package models

import "time"

type Service struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	StudioID uint `json:"studio_id"`

	Name        string  `gorm:"size:100;not null" json:"name"`
	Description string  `gorm:"size:255" json:"description"`
	DurationMin int     `json:"duration_min"`
	Price       float64 `json:"price"`
	Active      bool    `gorm:"default:true" json:"active"`

	Category string `gorm:"size:50" json:"category"`

	// Reassignment offer configuration: flat discount granted to the
	// candidate client and how long the offer stays open.
	OfferDiscount    float64 `json:"offer_discount"`
	OfferWaitMinutes int     `gorm:"default:15" json:"offer_wait_minutes"`

	// RoomFill marks services that use the loose room-fill variant
	// instead of the formal accept/reject offer cycle.
	RoomFill bool `gorm:"default:false" json:"room_fill"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
