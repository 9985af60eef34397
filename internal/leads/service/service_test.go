package service

import (
	"context"
	"strings"
	"testing"

	"businesson_backend/internal/events"
	"businesson_backend/internal/leads/repository"
	"businesson_backend/internal/leads/transport"
	"businesson_backend/platform/apperr"
	"businesson_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeLeadStore struct {
	leads map[uuid.UUID]*repository.Lead
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{leads: make(map[uuid.UUID]*repository.Lead)}
}

func (f *fakeLeadStore) Create(_ context.Context, lead *repository.Lead) error {
	stored := *lead
	f.leads[lead.ID] = &stored
	return nil
}

func (f *fakeLeadStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return nil, apperr.NotFound("lead not found")
	}
	copied := *lead
	return &copied, nil
}

func (f *fakeLeadStore) GetByPhone(_ context.Context, phone string) (*repository.Lead, error) {
	for _, lead := range f.leads {
		if lead.Phone == phone {
			copied := *lead
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeLeadStore) GetByEmail(_ context.Context, email string) (*repository.Lead, error) {
	for _, lead := range f.leads {
		if strings.EqualFold(lead.Email, email) {
			copied := *lead
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeLeadStore) List(_ context.Context, _ repository.ListFilter) ([]repository.Lead, int, error) {
	var out []repository.Lead
	for _, lead := range f.leads {
		out = append(out, *lead)
	}
	return out, len(out), nil
}

func (f *fakeLeadStore) Update(_ context.Context, lead *repository.Lead) error {
	if _, ok := f.leads[lead.ID]; !ok {
		return apperr.NotFound("lead not found")
	}
	stored := *lead
	f.leads[lead.ID] = &stored
	return nil
}

func (f *fakeLeadStore) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	lead, ok := f.leads[id]
	if !ok {
		return apperr.NotFound("lead not found")
	}
	lead.Status = status
	return nil
}

func (f *fakeLeadStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.leads[id]; !ok {
		return apperr.NotFound("lead not found")
	}
	delete(f.leads, id)
	return nil
}

func newLeadService() (*Service, *fakeLeadStore) {
	store := newFakeLeadStore()
	log := logger.New("test")
	return New(store, events.NewInMemoryBus(log), log), store
}

func TestCreateDefaultsStatusAndNormalizesPhone(t *testing.T) {
	svc, _ := newLeadService()

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:  "Dana Fisher",
		Phone: "(202) 555-0123",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if lead.Status != transport.LeadStatusNew {
		t.Fatalf("status = %s, want New", lead.Status)
	}
	if lead.Phone != "+12025550123" {
		t.Fatalf("phone = %s, want E.164 form", lead.Phone)
	}
}

func TestPromoteOnlyUpgrades(t *testing.T) {
	svc, store := newLeadService()

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:   "Riley Chen",
		Phone:  "+12025550124",
		Status: transport.LeadStatusHot,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Warm is below Hot: promotion is a no-op.
	if err := svc.Promote(context.Background(), lead.ID, transport.LeadStatusWarm, "inbound_message"); err != nil {
		t.Fatalf("Promote returned error: %v", err)
	}
	if got := store.leads[lead.ID].Status; got != string(transport.LeadStatusHot) {
		t.Fatalf("status downgraded to %s", got)
	}
}

func TestPromoteUpgradesThroughLadder(t *testing.T) {
	svc, store := newLeadService()

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:   "Sam Ortiz",
		Phone:  "+12025550125",
		Status: transport.LeadStatusCold,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	for _, target := range []transport.LeadStatus{
		transport.LeadStatusNew,
		transport.LeadStatusWarm,
		transport.LeadStatusHot,
	} {
		if err := svc.Promote(context.Background(), lead.ID, target, "user"); err != nil {
			t.Fatalf("Promote to %s returned error: %v", target, err)
		}
		if got := store.leads[lead.ID].Status; got != string(target) {
			t.Fatalf("status = %s, want %s", got, target)
		}
	}
}

func TestPromoteSameStatusIsNoOp(t *testing.T) {
	svc, _ := newLeadService()

	lead, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:   "Jo Walsh",
		Phone:  "+12025550126",
		Status: transport.LeadStatusWarm,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Promote(context.Background(), lead.ID, transport.LeadStatusWarm, "follow_up"); err != nil {
		t.Fatalf("Promote returned error: %v", err)
	}
}

func TestLookupByPhoneNormalizesBeforeMatching(t *testing.T) {
	svc, _ := newLeadService()

	if _, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:  "Dana Fisher",
		Phone: "+12025550123",
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	lead, err := svc.LookupByPhone(context.Background(), "(202) 555-0123")
	if err != nil {
		t.Fatalf("LookupByPhone returned error: %v", err)
	}
	if lead == nil {
		t.Fatal("expected lead found through normalized phone")
	}

	missing, err := svc.LookupByPhone(context.Background(), "+12025550199")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown number, got lead=%v err=%v", missing, err)
	}
}

func TestImportCSVSkipsDuplicatesAndReportsBadRows(t *testing.T) {
	svc, _ := newLeadService()

	if _, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:  "Existing Lead",
		Phone: "+12025550123",
		Email: "existing@example.com",
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	csvData := strings.Join([]string{
		"name,phone,email,source",
		"Alice Gray,+12025550127,alice@example.com,website",
		"Existing Again,(202) 555-0123,,referral",
		",+12025550128,,",
		"Bob Kim,+12025550129,bob@example.com,",
		"Same Email,+12025550130,existing@example.com,web",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ImportCSV returned error: %v", err)
	}

	if result.Imported != 2 {
		t.Fatalf("imported = %d, want 2", result.Imported)
	}
	// One duplicate by normalized phone, one by email.
	if result.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", result.Skipped)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 4 {
		t.Fatalf("errors = %v, want one error on row 4", result.Errors)
	}
}

func TestImportCSVRequiresNameAndPhoneColumns(t *testing.T) {
	svc, _ := newLeadService()

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("email,source\na@example.com,web"))
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad request for missing columns, got %v", err)
	}
}

func TestRank(t *testing.T) {
	order := []transport.LeadStatus{
		transport.LeadStatusCold,
		transport.LeadStatusNew,
		transport.LeadStatusWarm,
		transport.LeadStatusHot,
	}
	for i := 1; i < len(order); i++ {
		if Rank(order[i]) <= Rank(order[i-1]) {
			t.Fatalf("expected %s to rank above %s", order[i], order[i-1])
		}
	}
	if Rank(transport.LeadStatus("Bogus")) != -1 {
		t.Fatal("expected unknown status to rank -1")
	}
}
