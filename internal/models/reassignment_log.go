package models

import "time"

// ReassignmentLog records one offer cycle against a cancelled
// appointment. Outcome stays null while the offer is pending and is
// written exactly once; rows are never deleted.
type ReassignmentLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	StudioID uint `json:"studio_id"`

	CancelledAppointmentID uint        `gorm:"index;not null" json:"cancelled_appointment_id"`
	CancelledAppointment   Appointment `gorm:"foreignKey:CancelledAppointmentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	// Cleared if the offer target itself changes.
	OfferedAppointmentID *uint        `json:"offered_appointment_id"`
	OfferedAppointment   *Appointment `gorm:"foreignKey:OfferedAppointmentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	NotifiedClientID uint `json:"notified_client_id"`

	Discount float64 `json:"discount"`

	Token string `gorm:"size:64;uniqueIndex;not null" json:"-"`

	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`

	Outcome *string `gorm:"size:20" json:"outcome"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
