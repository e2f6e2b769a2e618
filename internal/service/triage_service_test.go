package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/repository"
)

type fakeClassifier struct {
	result domain.ClassificationResult
	calls  int32
}

func (f *fakeClassifier) Classify(ctx context.Context, ticket domain.IncomingTicket) domain.ClassificationResult {
	atomic.AddInt32(&f.calls, 1)
	return f.result
}

type fakeRouter struct {
	result domain.RoutingResult
	calls  int32
}

func (f *fakeRouter) Route(ctx context.Context, ticket *domain.ProcessedTicket, mapping *domain.TeamMapping) domain.RoutingResult {
	atomic.AddInt32(&f.calls, 1)
	return f.result
}

type fakeMappings struct {
	mapping *domain.TeamMapping
	err     error
}

func (f *fakeMappings) GetMapping(ctx context.Context, dept domain.Department, priority domain.TicketPriority) (*domain.TeamMapping, error) {
	return f.mapping, f.err
}

func (f *fakeMappings) ListActive(ctx context.Context) ([]domain.TeamMapping, error) {
	return nil, nil
}

type fakeLogs struct {
	mu      sync.Mutex
	records map[string]domain.ProcessedTicket
}

func newFakeLogs() *fakeLogs {
	return &fakeLogs{records: map[string]domain.ProcessedTicket{}}
}

func (f *fakeLogs) Upsert(ctx context.Context, ticket *domain.ProcessedTicket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[ticket.TicketID] = *ticket
	return nil
}

func (f *fakeLogs) GetByTicketID(ctx context.Context, ticketID string) (*domain.ProcessedTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[ticketID]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	return &record, nil
}

func (f *fakeLogs) Metrics(ctx context.Context) (*repository.TriageMetrics, error) {
	return &repository.TriageMetrics{}, nil
}

func (f *fakeLogs) record(ticketID string) (domain.ProcessedTicket, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[ticketID]
	return record, ok
}

func validTicket() domain.IncomingTicket {
	return domain.IncomingTicket{
		Title:       "VPN down",
		Description: "Cannot connect",
		Email:       "user@example.com",
		Priority:    domain.TicketPriorityHigh,
	}
}

func classification() domain.ClassificationResult {
	return domain.ClassificationResult{
		Department:   domain.DepartmentIT,
		AssignedTeam: "it_support_team",
		Confidence:   0.9,
		Reasoning:    "keyword match",
		ModelVersion: "gemini-1.5-pro",
	}
}

func newTestService(classifier Classifier, router Router, mappings repository.TeamMappingRepository, logs repository.TicketLogRepository) *TriageService {
	return NewTriageService(TriageDependencies{
		Classifier:      classifier,
		Router:          router,
		Mappings:        mappings,
		Logs:            logs,
		Dispatcher:      events.NewDispatcher(nil),
		Metrics:         observability.NewMetrics(),
		PipelineTimeout: 5 * time.Second,
	})
}

func TestAcceptRejectsInvalidTickets(t *testing.T) {
	svc := newTestService(&fakeClassifier{}, &fakeRouter{}, &fakeMappings{}, newFakeLogs())

	_, err := svc.Accept(context.Background(), domain.IncomingTicket{Description: "d", Email: "e"})
	assert.Error(t, err)

	_, err = svc.Accept(context.Background(), domain.IncomingTicket{
		Title: "t", Description: "d", Email: "e", Priority: "urgent",
	})
	assert.Error(t, err)
}

func TestAcceptAssignsTicketID(t *testing.T) {
	logs := newFakeLogs()
	svc := newTestService(&fakeClassifier{result: classification()}, &fakeRouter{
		result: domain.RoutingResult{Success: true, SystemName: "jira"},
	}, &fakeMappings{mapping: &domain.TeamMapping{Endpoint: "https://company.atlassian.net"}}, logs)

	ticketID, err := svc.Accept(context.Background(), validTicket())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ticketID, "TKT-"))
	assert.Len(t, ticketID, 12)
	assert.Equal(t, strings.ToUpper(ticketID), ticketID)
}

func TestPipelineRoutesClassifiedTicket(t *testing.T) {
	classifier := &fakeClassifier{result: classification()}
	router := &fakeRouter{result: domain.RoutingResult{
		Success:          true,
		SystemName:       "jira",
		ExternalTicketID: "SUPP-42",
	}}
	logs := newFakeLogs()
	svc := newTestService(classifier, router, &fakeMappings{
		mapping: &domain.TeamMapping{Endpoint: "https://company.atlassian.net"},
	}, logs)

	ticket := domain.NewProcessedTicket("TKT-TEST0001", validTicket())
	svc.runPipeline(ticket)

	record, ok := logs.record("TKT-TEST0001")
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusRouted, record.Status)
	assert.Equal(t, domain.DepartmentIT, record.Department)
	assert.Equal(t, "SUPP-42", record.ExternalTicketID)
	assert.Equal(t, "jira", record.RoutedToSystem)
	assert.Empty(t, record.RoutingError)
	assert.Equal(t, int32(1), atomic.LoadInt32(&classifier.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&router.calls))
}

func TestPipelineFailsWhenNoMappingExists(t *testing.T) {
	router := &fakeRouter{}
	logs := newFakeLogs()
	svc := newTestService(&fakeClassifier{result: classification()}, router,
		&fakeMappings{mapping: nil}, logs)

	ticket := domain.NewProcessedTicket("TKT-TEST0002", validTicket())
	svc.runPipeline(ticket)

	record, ok := logs.record("TKT-TEST0002")
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusFailed, record.Status)
	assert.Equal(t, "no team mapping found for department IT", record.RoutingError)
	assert.Equal(t, int32(0), atomic.LoadInt32(&router.calls), "router must never be invoked without a mapping")
}

func TestPipelineRecordsRoutingFailure(t *testing.T) {
	router := &fakeRouter{result: domain.RoutingResult{
		Success:      false,
		SystemName:   "freshservice",
		ErrorMessage: "HTTP error 503: unavailable",
	}}
	logs := newFakeLogs()
	svc := newTestService(&fakeClassifier{result: classification()}, router,
		&fakeMappings{mapping: &domain.TeamMapping{Endpoint: "https://company.freshservice.com"}}, logs)

	ticket := domain.NewProcessedTicket("TKT-TEST0003", validTicket())
	svc.runPipeline(ticket)

	record, ok := logs.record("TKT-TEST0003")
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusFailed, record.Status)
	assert.Equal(t, "freshservice", record.RoutedToSystem)
	assert.Equal(t, "HTTP error 503: unavailable", record.RoutingError)
}

func TestPipelinePublishesLifecycleEvents(t *testing.T) {
	dispatcher := events.NewDispatcher(nil)
	var mu sync.Mutex
	var seen []events.EventType
	for _, eventType := range []events.EventType{
		events.TicketClassified, events.TicketRouted, events.TicketRoutingFailed,
	} {
		dispatcher.Subscribe(eventType, func(e events.Event) {
			mu.Lock()
			seen = append(seen, e.Type)
			mu.Unlock()
		})
	}

	svc := NewTriageService(TriageDependencies{
		Classifier: &fakeClassifier{result: classification()},
		Router:     &fakeRouter{result: domain.RoutingResult{Success: true, SystemName: "jira"}},
		Mappings:   &fakeMappings{mapping: &domain.TeamMapping{Endpoint: "https://company.atlassian.net"}},
		Logs:       newFakeLogs(),
		Dispatcher: dispatcher,
	})

	svc.runPipeline(domain.NewProcessedTicket("TKT-TEST0004", validTicket()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []events.EventType{events.TicketClassified, events.TicketRouted}, seen)
}

func TestGetTicketFallsBackToAuditLog(t *testing.T) {
	logs := newFakeLogs()
	svc := newTestService(&fakeClassifier{}, &fakeRouter{}, &fakeMappings{}, logs)

	stored := domain.NewProcessedTicket("TKT-TEST0005", validTicket())
	require.NoError(t, logs.Upsert(context.Background(), stored))

	ticket, err := svc.GetTicket(context.Background(), "TKT-TEST0005")
	require.NoError(t, err)
	assert.Equal(t, "TKT-TEST0005", ticket.TicketID)

	_, err = svc.GetTicket(context.Background(), "TKT-MISSING0")
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
}

func TestConcurrentPipelinesAreIsolated(t *testing.T) {
	classifier := &fakeClassifier{result: classification()}
	router := &fakeRouter{result: domain.RoutingResult{Success: true, SystemName: "jira"}}
	logs := newFakeLogs()
	svc := newTestService(classifier, router, &fakeMappings{
		mapping: &domain.TeamMapping{Endpoint: "https://company.atlassian.net"},
	}, logs)

	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		id, err := svc.Accept(context.Background(), validTicket())
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.Eventually(t, func() bool {
		for _, id := range ids {
			record, ok := logs.record(id)
			if !ok || record.Status != domain.TicketStatusRouted {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	unique := map[string]struct{}{}
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	assert.Len(t, unique, 20)
}
