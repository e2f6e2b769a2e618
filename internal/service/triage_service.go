package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/events"
	"github.com/spec-kit/ticket-triage/internal/observability"
	"github.com/spec-kit/ticket-triage/internal/persistence"
	"github.com/spec-kit/ticket-triage/internal/repository"
	apperrors "github.com/spec-kit/ticket-triage/pkg/util"
)

// Classifier assigns a department and team to a ticket.
type Classifier interface {
	Classify(ctx context.Context, ticket domain.IncomingTicket) domain.ClassificationResult
}

// Router delivers a classified ticket to its mapped endpoint.
type Router interface {
	Route(ctx context.Context, ticket *domain.ProcessedTicket, mapping *domain.TeamMapping) domain.RoutingResult
}

// TriageService runs the accept/classify/route pipeline. Accept returns as
// soon as the ticket is validated and assigned an id; the rest of the
// pipeline runs on its own goroutine per ticket.
type TriageService struct {
	classifier      Classifier
	router          Router
	mappings        repository.TeamMappingRepository
	logs            repository.TicketLogRepository
	statusCache     *persistence.Redis
	dispatcher      *events.Dispatcher
	metrics         *observability.Metrics
	logger          *zap.Logger
	pipelineTimeout time.Duration
}

// TriageDependencies bundles the service collaborators.
type TriageDependencies struct {
	Classifier      Classifier
	Router          Router
	Mappings        repository.TeamMappingRepository
	Logs            repository.TicketLogRepository
	StatusCache     *persistence.Redis
	Dispatcher      *events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	PipelineTimeout time.Duration
}

// NewTriageService constructs the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := deps.PipelineTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &TriageService{
		classifier:      deps.Classifier,
		router:          deps.Router,
		mappings:        deps.Mappings,
		logs:            deps.Logs,
		statusCache:     deps.StatusCache,
		dispatcher:      deps.Dispatcher,
		metrics:         deps.Metrics,
		logger:          logger,
		pipelineTimeout: timeout,
	}
}

// Accept validates the incoming ticket, assigns a ticket id and starts the
// background pipeline. It returns the assigned id immediately.
func (s *TriageService) Accept(ctx context.Context, in domain.IncomingTicket) (string, error) {
	if err := in.Validate(); err != nil {
		return "", apperrors.NewValidationError(err.Error(), nil)
	}

	ticketID := newTicketID()
	ticket := domain.NewProcessedTicket(ticketID, in)

	s.logger.Info("ticket accepted",
		zap.String("ticket_id", ticketID),
		zap.String("title", in.Title),
		zap.String("priority", string(in.Priority)))

	s.publish(events.NewEvent(events.TicketReceived, ticketID, events.TicketReceivedPayload{
		Title:    in.Title,
		Email:    in.Email,
		Priority: in.Priority,
	}))

	// The request context dies when the HTTP response is written; the
	// pipeline gets its own bounded context.
	go s.runPipeline(ticket)

	return ticketID, nil
}

// runPipeline drives one ticket from received to routed or failed.
func (s *TriageService) runPipeline(ticket *domain.ProcessedTicket) {
	ctx, cancel := context.WithTimeout(context.Background(), s.pipelineTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pipeline panicked",
				zap.String("ticket_id", ticket.TicketID),
				zap.Any("panic", r))
		}
	}()

	s.persist(ctx, ticket)
	s.recordStatus(ticket)

	result := s.classifier.Classify(ctx, ticket.Incoming())
	ticket.ApplyClassification(result)
	s.persist(ctx, ticket)
	s.recordStatus(ticket)

	if s.metrics != nil {
		s.metrics.RecordClassification(string(result.Department), result.ModelVersion)
	}
	s.publish(events.NewEvent(events.TicketClassified, ticket.TicketID, events.TicketClassifiedPayload{
		Department:   result.Department,
		AssignedTeam: result.AssignedTeam,
		Confidence:   result.Confidence,
		ModelVersion: result.ModelVersion,
	}))

	mapping, err := s.mappings.GetMapping(ctx, ticket.Department, ticket.Priority)
	if err != nil {
		s.failTicket(ctx, ticket, "", fmt.Sprintf("mapping lookup failed: %v", err))
		return
	}
	if mapping == nil {
		// No synthetic endpoint is invented; the router is never invoked.
		s.failTicket(ctx, ticket, "", fmt.Sprintf("no team mapping found for department %s", ticket.Department))
		return
	}

	routed := s.router.Route(ctx, ticket, mapping)
	ticket.RoutedToSystem = routed.SystemName
	ticket.UpdatedAt = time.Now().UTC()

	if routed.Success {
		ticket.Status = domain.TicketStatusRouted
		ticket.ExternalTicketID = routed.ExternalTicketID
		ticket.RoutingError = ""
		s.persist(ctx, ticket)
		s.recordStatus(ticket)
		if s.metrics != nil {
			s.metrics.RecordRouting(routed.SystemName, true)
		}
		s.publish(events.NewEvent(events.TicketRouted, ticket.TicketID, events.TicketRoutedPayload{
			System:           routed.SystemName,
			ExternalTicketID: routed.ExternalTicketID,
		}))
		s.logger.Info("pipeline completed",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("system", routed.SystemName),
			zap.String("external_ticket_id", routed.ExternalTicketID))
		return
	}

	if s.metrics != nil {
		s.metrics.RecordRouting(routed.SystemName, false)
	}
	s.failTicket(ctx, ticket, routed.SystemName, routed.ErrorMessage)
}

// failTicket records a terminal failure in the audit log and status cache.
func (s *TriageService) failTicket(ctx context.Context, ticket *domain.ProcessedTicket, system, reason string) {
	ticket.Status = domain.TicketStatusFailed
	ticket.RoutingError = reason
	if system != "" {
		ticket.RoutedToSystem = system
	}
	ticket.UpdatedAt = time.Now().UTC()
	s.persist(ctx, ticket)
	s.recordStatus(ticket)

	s.publish(events.NewEvent(events.TicketRoutingFailed, ticket.TicketID, events.TicketRoutingFailedPayload{
		System: system,
		Reason: reason,
	}))
	s.logger.Error("pipeline failed",
		zap.String("ticket_id", ticket.TicketID),
		zap.String("system", system),
		zap.String("reason", reason))
}

// GetTicket returns the current state of a ticket, preferring the status
// cache and falling back to the audit log.
func (s *TriageService) GetTicket(ctx context.Context, ticketID string) (*domain.ProcessedTicket, error) {
	if s.statusCache != nil {
		if cached, err := s.statusCache.FetchTicketStatus(ctx, ticketID); err == nil && cached != nil {
			var ticket domain.ProcessedTicket
			if err := json.Unmarshal(cached, &ticket); err == nil {
				return &ticket, nil
			}
		}
	}
	return s.logs.GetByTicketID(ctx, ticketID)
}

// persist upserts the audit row. Persistence failures are logged and do not
// abort the pipeline.
func (s *TriageService) persist(ctx context.Context, ticket *domain.ProcessedTicket) {
	if s.logs == nil {
		return
	}
	if err := s.logs.Upsert(ctx, ticket); err != nil {
		s.logger.Error("audit upsert failed",
			zap.String("ticket_id", ticket.TicketID),
			zap.String("status", string(ticket.Status)),
			zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordTicketStatus(string(ticket.Status))
	}
}

// recordStatus refreshes the cached status document.
func (s *TriageService) recordStatus(ticket *domain.ProcessedTicket) {
	if s.statusCache == nil {
		return
	}
	document, err := json.Marshal(ticket)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.statusCache.StoreTicketStatus(ctx, ticket.TicketID, document); err != nil {
		s.logger.Warn("status cache write failed",
			zap.String("ticket_id", ticket.TicketID), zap.Error(err))
	}
}

func (s *TriageService) publish(event events.Event) {
	if s.dispatcher != nil {
		s.dispatcher.Publish(event)
	}
}

// newTicketID mints a short human-pasteable id, TKT- plus eight uppercase
// hex characters from a fresh UUID.
func newTicketID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TKT-" + strings.ToUpper(raw[:8])
}
