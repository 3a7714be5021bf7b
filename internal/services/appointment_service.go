package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rafiq/internal/models"
)

// AppointmentService books office visit slots.
type AppointmentService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewAppointmentService creates an appointment service.
func NewAppointmentService(db *gorm.DB, logger *logrus.Logger) *AppointmentService {
	if logger == nil {
		logger = logrus.New()
	}

	return &AppointmentService{
		db:     db,
		logger: logger,
	}
}

// AppointmentCreateRequest books a slot.
type AppointmentCreateRequest struct {
	ServiceID   string    `json:"service_id" binding:"required"`
	Office      string    `json:"office" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Notes       string    `json:"notes"`
}

// ErrAppointmentNotFound reports a missing appointment.
var ErrAppointmentNotFound = fmt.Errorf("appointment not found")

// CreateAppointment books a slot for a citizen. Slots in the past are
// rejected.
func (s *AppointmentService) CreateAppointment(ctx context.Context, userID uint, req *AppointmentCreateRequest) (*models.Appointment, error) {
	if req.ScheduledAt.Before(time.Now()) {
		return nil, fmt.Errorf("scheduled time must be in the future")
	}

	appointment := &models.Appointment{
		UserID:      userID,
		ServiceID:   req.ServiceID,
		Office:      req.Office,
		ScheduledAt: req.ScheduledAt,
		Status:      "scheduled",
		Notes:       req.Notes,
	}

	if err := s.db.WithContext(ctx).Create(appointment).Error; err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.logger.Infof("Created appointment %d for user %d at %s", appointment.ID, userID, req.Office)

	return appointment, nil
}

// ListForUser returns a citizen's appointments, soonest first.
func (s *AppointmentService) ListForUser(ctx context.Context, userID uint, upcomingOnly bool) ([]models.Appointment, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if upcomingOnly {
		query = query.Where("scheduled_at >= ? AND status IN ?", time.Now(), []string{"scheduled", "confirmed"})
	}

	var appointments []models.Appointment
	if err := query.Order("scheduled_at ASC").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	return appointments, nil
}

// ConfirmAppointment marks a scheduled appointment as confirmed.
func (s *AppointmentService) ConfirmAppointment(ctx context.Context, userID uint, appointmentID uint) error {
	return s.setStatus(ctx, userID, appointmentID, []string{"scheduled"}, "confirmed")
}

// CancelAppointment cancels a scheduled or confirmed appointment.
func (s *AppointmentService) CancelAppointment(ctx context.Context, userID uint, appointmentID uint) error {
	return s.setStatus(ctx, userID, appointmentID, []string{"scheduled", "confirmed"}, "cancelled")
}

// CompleteAppointment marks a visit as done. Admin only.
func (s *AppointmentService) CompleteAppointment(ctx context.Context, appointmentID uint) error {
	return s.setStatus(ctx, 0, appointmentID, []string{"scheduled", "confirmed"}, "completed")
}

func (s *AppointmentService) setStatus(ctx context.Context, userID uint, appointmentID uint, fromStatuses []string, to string) error {
	query := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("id = ? AND status IN ?", appointmentID, fromStatuses)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	result := query.Update("status", to)
	if result.Error != nil {
		return fmt.Errorf("failed to update appointment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAppointmentNotFound
	}

	s.logger.Infof("Appointment %d moved to %s", appointmentID, to)

	return nil
}
