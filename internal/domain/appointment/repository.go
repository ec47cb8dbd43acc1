package appointment

import (
	"context"
	"time"

	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
)

type Repository interface {
	// -------- Studio --------
	GetStudioByID(
		ctx context.Context,
		id uint,
	) (*models.Studio, error)

	// -------- Service --------
	GetService(
		ctx context.Context,
		studioID uint,
		serviceID uint,
	) (*models.Service, error)

	GetServiceByID(
		ctx context.Context,
		serviceID uint,
	) (*models.Service, error)

	// -------- Client --------
	GetClientByID(
		ctx context.Context,
		clientID uint,
	) (*models.Client, error)

	GetOrCreateClient(
		ctx context.Context,
		studioID uint,
		name string,
		phone string,
		email string,
	) (*models.Client, error)

	// -------- Appointment (create / conflict) --------
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	AssertNoTimeConflict(
		ctx context.Context,
		professionalID uint,
		start time.Time,
		end time.Time,
	) error

	// IsSlotFree reports whether no other appointment of the
	// professional in an active status shares the exact start time.
	// excludeID skips one appointment (used when checking an
	// appointment's own slot).
	IsSlotFree(
		ctx context.Context,
		professionalID uint,
		start time.Time,
		excludeID uint,
	) (bool, error)

	// -------- Appointment (state change) --------
	GetAppointment(
		ctx context.Context,
		appointmentID uint,
	) (*models.Appointment, error)

	GetAppointmentForProfessional(
		ctx context.Context,
		appointmentID uint,
		professionalID uint,
	) (*models.Appointment, error)

	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	// -------- Reassignment candidates --------

	// FindFurthestCandidate returns the appointment for the service,
	// in one of the given statuses, starting strictly after `after`,
	// with the latest start time. Ties break on the lowest id.
	// Returns nil when no candidate exists.
	FindFurthestCandidate(
		ctx context.Context,
		serviceID uint,
		after time.Time,
		statuses []string,
	) (*models.Appointment, error)

	// -------- Availability --------
	GetWorkingHours(
		ctx context.Context,
		professionalID uint,
		weekday int,
	) (*models.WorkingHours, error)

	ListAppointmentsForDay(
		ctx context.Context,
		professionalID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	IsWithinWorkingHours(
		ctx context.Context,
		professionalID uint,
		start time.Time,
		end time.Time,
	) (bool, error)

	ListAppointmentsForPeriod(
		ctx context.Context,
		professionalID uint,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)
}
