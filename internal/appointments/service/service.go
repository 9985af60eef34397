// Package service implements appointment scheduling, including the
// automated booking path used by the inbound message pipeline.
package service

import (
	"context"
	"time"

	"businesson_backend/internal/appointments/repository"
	"businesson_backend/internal/appointments/transport"
	"businesson_backend/internal/channel"
	"businesson_backend/internal/events"
	"businesson_backend/platform/apperr"

	"github.com/google/uuid"
)

// AppointmentStore is the slice of the repository the service needs.
type AppointmentStore interface {
	Create(ctx context.Context, appt *repository.Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Appointment, error)
	List(ctx context.Context, filter repository.ListFilter) ([]repository.Appointment, error)
	HasScheduled(ctx context.Context, leadID uuid.UUID) (bool, error)
	HasScheduledAt(ctx context.Context, leadID uuid.UUID, at time.Time) (bool, error)
	Update(ctx context.Context, appt *repository.Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service provides appointment business logic
type Service struct {
	repo AppointmentStore
	bus  events.Bus
}

// New creates a new appointments service
func New(repo AppointmentStore, bus events.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// BookAutomated creates an appointment on behalf of the AI pipeline.
// A lead with any outstanding Scheduled appointment conflicts: the
// pipeline turns that into a "slot unavailable" reply rather than
// stacking bookings for the same lead.
func (s *Service) BookAutomated(ctx context.Context, leadID uuid.UUID, at time.Time, source channel.Channel) error {
	conflict, err := s.repo.HasScheduled(ctx, leadID)
	if err != nil {
		return err
	}
	if conflict {
		return apperr.Conflict("lead already has a scheduled appointment")
	}

	appt := newAppointment(leadID, at, "Appointment", "Booked automatically from a "+source.String()+" conversation.", source.String())
	if err := s.repo.Create(ctx, appt); err != nil {
		return err
	}

	s.publishCreated(ctx, appt, true)
	return nil
}

// Create adds an appointment from the calendar UI. Conflicts only with an
// existing Scheduled appointment at the exact same time for the same lead.
func (s *Service) Create(ctx context.Context, req transport.CreateAppointmentRequest) (*transport.AppointmentResponse, error) {
	conflict, err := s.repo.HasScheduledAt(ctx, req.LeadID, req.DateTime)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, apperr.Conflict("an appointment already exists at that time")
	}

	appt := newAppointment(req.LeadID, req.DateTime, req.Title, req.Notes, "manual")
	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.publishCreated(ctx, appt, false)
	return toResponse(appt), nil
}

// GetByID retrieves an appointment
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.AppointmentResponse, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(appt), nil
}

// List retrieves appointments matching the filter
func (s *Service) List(ctx context.Context, req transport.ListAppointmentsRequest) ([]transport.AppointmentResponse, error) {
	filter := repository.ListFilter{
		LeadID: req.LeadID,
		From:   req.From,
		To:     req.To,
	}
	if req.Status != nil {
		status := string(*req.Status)
		filter.Status = &status
	}

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]transport.AppointmentResponse, 0, len(appointments))
	for i := range appointments {
		items = append(items, *toResponse(&appointments[i]))
	}
	return items, nil
}

// Update reschedules or edits an appointment
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateAppointmentRequest) (*transport.AppointmentResponse, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DateTime != nil {
		appt.DateTime = *req.DateTime
	}
	if req.Title != nil {
		appt.Title = *req.Title
	}
	if req.Notes != nil {
		appt.Notes = *req.Notes
	}
	if req.Status != nil {
		appt.Status = string(*req.Status)
	}
	appt.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, appt); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.AppointmentUpdated{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		LeadID:        appt.LeadID,
		StartTime:     appt.DateTime,
		EndTime:       appt.DateTime.Add(time.Hour),
	})

	return toResponse(appt), nil
}

// Delete cancels and removes an appointment
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.AppointmentDeleted{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		LeadID:        appt.LeadID,
	})

	return nil
}

func (s *Service) publishCreated(ctx context.Context, appt *repository.Appointment, automated bool) {
	s.bus.Publish(ctx, events.AppointmentCreated{
		BaseEvent:     events.NewBaseEvent(),
		AppointmentID: appt.ID,
		LeadID:        appt.LeadID,
		Title:         appt.Title,
		StartTime:     appt.DateTime,
		EndTime:       appt.DateTime.Add(time.Hour),
		Automated:     automated,
	})
}

func newAppointment(leadID uuid.UUID, at time.Time, title, notes, source string) *repository.Appointment {
	now := time.Now().UTC()
	return &repository.Appointment{
		ID:        uuid.New(),
		LeadID:    leadID,
		DateTime:  at,
		Title:     title,
		Notes:     notes,
		Source:    source,
		Status:    string(transport.AppointmentStatusScheduled),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func toResponse(appt *repository.Appointment) *transport.AppointmentResponse {
	return &transport.AppointmentResponse{
		ID:        appt.ID,
		LeadID:    appt.LeadID,
		DateTime:  appt.DateTime,
		Title:     appt.Title,
		Notes:     appt.Notes,
		Source:    appt.Source,
		Status:    transport.AppointmentStatus(appt.Status),
		CreatedAt: appt.CreatedAt,
		UpdatedAt: appt.UpdatedAt,
	}
}
