package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appointmentdomain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/appointment"
	domain "github.com/BeautifulStudio01/salon-scheduler/internal/domain/reassignment"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
)

type ReassignmentGormRepository struct {
	db *gorm.DB
}

func NewReassignmentGormRepository(db *gorm.DB) *ReassignmentGormRepository {
	return &ReassignmentGormRepository{db: db}
}

func (r *ReassignmentGormRepository) CreateLog(
	ctx context.Context,
	log *models.ReassignmentLog,
) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *ReassignmentGormRepository) GetLogByToken(
	ctx context.Context,
	token string,
) (*models.ReassignmentLog, error) {

	var log models.ReassignmentLog
	if err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&log).Error; err != nil {
		return nil, err
	}

	return &log, nil
}

func (r *ReassignmentGormRepository) GetLogByTokenForUpdate(
	ctx context.Context,
	token string,
) (*models.ReassignmentLog, error) {

	var log models.ReassignmentLog
	if err := r.lockingQuery(ctx).
		Where("token = ?", token).
		First(&log).Error; err != nil {
		return nil, err
	}

	return &log, nil
}

func (r *ReassignmentGormRepository) GetLogByIDForUpdate(
	ctx context.Context,
	id uint,
) (*models.ReassignmentLog, error) {

	var log models.ReassignmentLog
	if err := r.lockingQuery(ctx).
		First(&log, id).Error; err != nil {
		return nil, err
	}

	return &log, nil
}

// sqlite (used by the test suite) has no SELECT ... FOR UPDATE; its
// writes are serialized by the database itself.
func (r *ReassignmentGormRepository) lockingQuery(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *ReassignmentGormRepository) LiveLogForCancelled(
	ctx context.Context,
	cancelledAppointmentID uint,
) (*models.ReassignmentLog, error) {

	var log models.ReassignmentLog
	err := r.db.WithContext(ctx).
		Where("cancelled_appointment_id = ? AND outcome IS NULL", cancelledAppointmentID).
		First(&log).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &log, nil
}

func (r *ReassignmentGormRepository) UpdateLog(
	ctx context.Context,
	log *models.ReassignmentLog,
) error {
	return r.db.WithContext(ctx).Save(log).Error
}

func (r *ReassignmentGormRepository) ListLogsForStudio(
	ctx context.Context,
	studioID uint,
) ([]models.ReassignmentLog, error) {

	var logs []models.ReassignmentLog
	if err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *ReassignmentGormRepository) InTx(
	ctx context.Context,
	fn func(logs domain.Repository, appts appointmentdomain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(
			NewReassignmentGormRepository(tx),
			NewAppointmentGormRepository(tx),
		)
	})
}

// Compile-time check
var _ domain.Repository = (*ReassignmentGormRepository)(nil)
