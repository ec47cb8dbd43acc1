package reassignment

import (
	"context"

	appointmentdomain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
)

type Repository interface {
	CreateLog(
		ctx context.Context,
		log *models.ReassignmentLog,
	) error

	GetLogByToken(
		ctx context.Context,
		token string,
	) (*models.ReassignmentLog, error)

	// GetLogByTokenForUpdate takes an exclusive row lock on the log.
	// Only meaningful inside InTx.
	GetLogByTokenForUpdate(
		ctx context.Context,
		token string,
	) (*models.ReassignmentLog, error)

	GetLogByIDForUpdate(
		ctx context.Context,
		id uint,
	) (*models.ReassignmentLog, error)

	// LiveLogForCancelled returns the pending (outcome null) log tied
	// to a cancelled appointment, or nil when none is open.
	LiveLogForCancelled(
		ctx context.Context,
		cancelledAppointmentID uint,
	) (*models.ReassignmentLog, error)

	UpdateLog(
		ctx context.Context,
		log *models.ReassignmentLog,
	) error

	ListLogsForStudio(
		ctx context.Context,
		studioID uint,
	) ([]models.ReassignmentLog, error)

	// InTx runs fn with both repositories bound to a single database
	// transaction; the accept race is closed by combining it with
	// GetLogByTokenForUpdate.
	InTx(
		ctx context.Context,
		fn func(logs Repository, appts appointmentdomain.Repository) error,
	) error
}
