package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/onegreenvn/campaign-builder-backend/internal/gateway"
	"github.com/onegreenvn/campaign-builder-backend/internal/models"
	"github.com/onegreenvn/campaign-builder-backend/internal/utils"
	"github.com/onegreenvn/campaign-builder-backend/internal/wizard"
)

// GenerationLogStore records webhook submissions
type GenerationLogStore interface {
	Create(ctx context.Context, log *models.GenerationLog) error
	MarkDelivered(ctx context.Context, correlationID, assetURL string) error
}

// GenerationEvent is published for every webhook submission
type GenerationEvent struct {
	Event         string    `json:"event"`
	CorrelationID string    `json:"correlationId"`
	SessionID     string    `json:"sessionId"`
	TenantID      string    `json:"tenantId"`
	UserID        string    `json:"userId"`
	AssetURL      string    `json:"assetUrl,omitempty"`
	Error         string    `json:"error,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// GenerationService sends campaigns to the generation webhook and keeps a
// record of every submission.
type GenerationService struct {
	gateway   wizard.Dispatcher
	logs      GenerationLogStore
	publisher EventPublisher
}

// NewGenerationService creates the service. publisher may be nil when the
// broker is unavailable.
func NewGenerationService(gw wizard.Dispatcher, logs GenerationLogStore, publisher EventPublisher) *GenerationService {
	return &GenerationService{gateway: gw, logs: logs, publisher: publisher}
}

// ForSession returns a dispatcher that attributes submissions to a session
func (s *GenerationService) ForSession(sessionID, tenantID, userID string) wizard.Dispatcher {
	return &sessionDispatcher{svc: s, sessionID: sessionID, tenantID: tenantID, userID: userID}
}

type sessionDispatcher struct {
	svc       *GenerationService
	sessionID string
	tenantID  string
	userID    string
}

func (d *sessionDispatcher) Dispatch(ctx context.Context, p gateway.Payload) (gateway.Result, error) {
	res, err := d.svc.gateway.Dispatch(ctx, p)
	d.svc.record(ctx, d, p, res, err)
	return res, err
}

func (s *GenerationService) record(ctx context.Context, d *sessionDispatcher, p gateway.Payload, res gateway.Result, dispatchErr error) {
	body, err := json.Marshal(p)
	if err != nil {
		body = nil
	}

	entry := &models.GenerationLog{
		CorrelationID: p.CorrelationID,
		SessionID:     d.sessionID,
		TenantID:      d.tenantID,
		UserID:        d.userID,
		Status:        models.GenerationStatusDispatched,
		Shape:         string(res.Shape),
		HTTPStatus:    res.Status,
		PayloadBytes:  len(body),
		AssetURL:      res.AssetURL,
		Payload:       datatypes.JSON(body),
	}
	event := GenerationEvent{
		Event:         "generation.dispatched",
		CorrelationID: p.CorrelationID,
		SessionID:     d.sessionID,
		TenantID:      d.tenantID,
		UserID:        d.userID,
		AssetURL:      res.AssetURL,
		Timestamp:     time.Now().UTC(),
	}
	if dispatchErr != nil {
		entry.Status = models.GenerationStatusFailed
		entry.Error = dispatchErr.Error()
		event.Event = "generation.failed"
		event.Error = dispatchErr.Error()
		utils.CaptureError(dispatchErr, map[string]string{
			"correlation_id": p.CorrelationID,
			"session_id":     d.sessionID,
			"tenant_id":      d.tenantID,
		})
	}

	log := logrus.WithFields(logrus.Fields{
		"operation":      "record_generation",
		"correlation_id": p.CorrelationID,
		"session_id":     d.sessionID,
		"tenant_id":      d.tenantID,
	})
	if s.logs != nil {
		if err := s.logs.Create(ctx, entry); err != nil {
			log.WithField("error", err).Warn("Failed to store generation log")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishMessage(ctx, GenerationEventsQueue, event); err != nil {
			log.WithField("error", err).Warn("Failed to publish generation event")
		}
	}
}

// MarkDelivered records an asset delivered after the webhook call
func (s *GenerationService) MarkDelivered(ctx context.Context, correlationID, assetURL string) {
	if s.logs == nil {
		return
	}
	if err := s.logs.MarkDelivered(ctx, correlationID, assetURL); err != nil {
		logrus.WithFields(logrus.Fields{
			"operation":      "mark_delivered",
			"correlation_id": correlationID,
			"error":          err,
		}).Warn("Failed to mark generation as delivered")
	}
}
