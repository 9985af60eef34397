// Package service implements lead management: CRUD, lookups used by the
// inbound pipelines, CSV import, and the status ladder shared by every
// module that warms a lead up.
package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"
	"time"

	"businesson_backend/internal/events"
	"businesson_backend/internal/leads/repository"
	"businesson_backend/internal/leads/transport"
	"businesson_backend/platform/apperr"
	"businesson_backend/platform/logger"
	"businesson_backend/platform/phone"

	"github.com/google/uuid"
)

// statusRank orders lead statuses for monotonic promotion.
// Automated flows may only move a lead up this ladder, never down.
var statusRank = map[transport.LeadStatus]int{
	transport.LeadStatusCold: 0,
	transport.LeadStatusNew:  1,
	transport.LeadStatusWarm: 2,
	transport.LeadStatusHot:  3,
}

// LeadStore is the slice of the repository the service needs.
type LeadStore interface {
	Create(ctx context.Context, lead *repository.Lead) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Lead, error)
	GetByPhone(ctx context.Context, phone string) (*repository.Lead, error)
	GetByEmail(ctx context.Context, email string) (*repository.Lead, error)
	List(ctx context.Context, filter repository.ListFilter) ([]repository.Lead, int, error)
	Update(ctx context.Context, lead *repository.Lead) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service provides lead business logic
type Service struct {
	repo LeadStore
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new leads service
func New(repo LeadStore, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Create adds a new lead. The phone number is normalized to E.164 before
// storage so inbound webhooks can match on it.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (*transport.LeadResponse, error) {
	status := req.Status
	if status == "" {
		status = transport.LeadStatusNew
	}

	now := time.Now().UTC()
	lead := &repository.Lead{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(req.Name),
		Phone:     phone.NormalizeE164(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		Status:    string(status),
		Source:    strings.TrimSpace(req.Source),
		Region:    strings.TrimSpace(req.Region),
		Company:   strings.TrimSpace(req.Company),
		Industry:  strings.TrimSpace(req.Industry),
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.LeadAdded{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Email:     lead.Email,
		Status:    lead.Status,
		Source:    lead.Source,
	})

	return toResponse(lead), nil
}

// GetByID retrieves a lead
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toResponse(lead), nil
}

// List retrieves leads matching the filter
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (*transport.LeadListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	filter := repository.ListFilter{
		Search: strings.TrimSpace(req.Search),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if req.Status != nil {
		status := string(*req.Status)
		filter.Status = &status
	}

	leads, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for i := range leads {
		items = append(items, *toResponse(&leads[i]))
	}

	totalPages := (total + pageSize - 1) / pageSize
	return &transport.LeadListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// Update modifies a lead's mutable fields. The ID and creation timestamp
// are never touched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (*transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		lead.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		lead.Phone = phone.NormalizeE164(*req.Phone)
	}
	if req.Email != nil {
		lead.Email = strings.TrimSpace(*req.Email)
	}
	if req.Status != nil {
		lead.Status = string(*req.Status)
	}
	if req.Source != nil {
		lead.Source = strings.TrimSpace(*req.Source)
	}
	if req.Region != nil {
		lead.Region = strings.TrimSpace(*req.Region)
	}
	if req.Company != nil {
		lead.Company = strings.TrimSpace(*req.Company)
	}
	if req.Industry != nil {
		lead.Industry = strings.TrimSpace(*req.Industry)
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}
	lead.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, lead); err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, lead, "user")

	return toResponse(lead), nil
}

// Delete removes a lead and, via cascade, its conversation history,
// call logs, and appointments.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.LeadDeleted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
	})

	return nil
}

// LookupByPhone finds a lead by a raw phone number, normalizing it first.
// Returns nil when no lead matches.
func (s *Service) LookupByPhone(ctx context.Context, rawPhone string) (*transport.LeadResponse, error) {
	lead, err := s.repo.GetByPhone(ctx, phone.NormalizeE164(rawPhone))
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, nil
	}
	return toResponse(lead), nil
}

// LookupByEmail finds a lead by email address. Returns nil when no lead matches.
func (s *Service) LookupByEmail(ctx context.Context, email string) (*transport.LeadResponse, error) {
	lead, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, nil
	}
	return toResponse(lead), nil
}

// Promote raises a lead's status to target if that is an upgrade.
// Downgrades are ignored so automated flows never regress a manually
// set status. Source labels what triggered the promotion.
func (s *Service) Promote(ctx context.Context, id uuid.UUID, target transport.LeadStatus, source string) error {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	current := transport.LeadStatus(lead.Status)
	if statusRank[target] <= statusRank[current] {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, id, string(target)); err != nil {
		return err
	}

	lead.Status = string(target)
	s.publishUpdated(ctx, lead, source)

	return nil
}

// ImportCSV bulk-creates leads from a CSV stream. The header must name
// name and phone columns; email, source, region, company, and industry
// are optional. Rows whose normalized phone matches an existing lead are
// skipped; malformed rows are reported, not fatal.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*transport.ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperr.BadRequest("empty or unreadable CSV")
	}
	cols := columnIndex(header)
	if _, ok := cols["name"]; !ok {
		return nil, apperr.BadRequest("CSV must have a name column")
	}
	if _, ok := cols["phone"]; !ok {
		return nil, apperr.BadRequest("CSV must have a phone column")
	}

	result := &transport.ImportResult{}
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			result.Errors = append(result.Errors, transport.ImportRowError{Row: row, Reason: "malformed row"})
			continue
		}

		name := strings.TrimSpace(field(record, cols, "name"))
		rawPhone := strings.TrimSpace(field(record, cols, "phone"))
		if name == "" || rawPhone == "" {
			result.Errors = append(result.Errors, transport.ImportRowError{Row: row, Reason: "name and phone are required"})
			continue
		}

		normalized := phone.NormalizeE164(rawPhone)
		existing, err := s.repo.GetByPhone(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			if email := strings.TrimSpace(field(record, cols, "email")); email != "" {
				existing, err = s.repo.GetByEmail(ctx, email)
				if err != nil {
					return nil, err
				}
			}
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		if _, err := s.Create(ctx, transport.CreateLeadRequest{
			Name:     name,
			Phone:    normalized,
			Email:    strings.TrimSpace(field(record, cols, "email")),
			Source:   strings.TrimSpace(field(record, cols, "source")),
			Region:   strings.TrimSpace(field(record, cols, "region")),
			Company:  strings.TrimSpace(field(record, cols, "company")),
			Industry: strings.TrimSpace(field(record, cols, "industry")),
		}); err != nil {
			result.Errors = append(result.Errors, transport.ImportRowError{Row: row, Reason: err.Error()})
			continue
		}
		result.Imported++
	}

	s.log.Info("lead import finished",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)

	return result, nil
}

func (s *Service) publishUpdated(ctx context.Context, lead *repository.Lead, source string) {
	s.bus.Publish(ctx, events.LeadUpdated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Status:    lead.Status,
		Source:    source,
	})
}

func toResponse(lead *repository.Lead) *transport.LeadResponse {
	return &transport.LeadResponse{
		ID:        lead.ID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Email:     lead.Email,
		Status:    transport.LeadStatus(lead.Status),
		Source:    lead.Source,
		Region:    lead.Region,
		Company:   lead.Company,
		Industry:  lead.Industry,
		Notes:     lead.Notes,
		CreatedAt: lead.CreatedAt,
		UpdatedAt: lead.UpdatedAt,
	}
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// Rank exposes the status ladder position, used by tests and by modules
// that need to compare statuses without duplicating the ordering.
func Rank(status transport.LeadStatus) int {
	rank, ok := statusRank[status]
	if !ok {
		return -1
	}
	return rank
}
