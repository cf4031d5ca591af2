package events

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"product-import-service/internal/models"
)

// Event subjects for the import lifecycle
const (
	SubjectImportStarted   = "import.started"
	SubjectImportCompleted = "import.completed"
	SubjectImportFailed    = "import.failed"
)

// ImportEvent is the audit payload published on session transitions
type ImportEvent struct {
	EventType    string    `json:"eventType"`
	SessionID    string    `json:"sessionId"`
	TenantID     string    `json:"tenantId"`
	InitiatorID  string    `json:"initiatorId"`
	FileName     string    `json:"fileName"`
	TotalRows    int       `json:"totalRows"`
	RowsAccepted int       `json:"rowsAccepted"`
	RowsRejected int       `json:"rowsRejected"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Publisher publishes import lifecycle events to NATS for the audit trail.
// It is optional: when NATS_URL is unset the service runs without it.
type Publisher struct {
	nc     *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS using NATS_URL
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("product-import-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{
		nc:     nc,
		logger: logger.WithField("component", "import-events"),
	}, nil
}

// Close drains the NATS connection
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// PublishImportStarted publishes an import.started event
func (p *Publisher) PublishImportStarted(session *models.ImportSession) {
	p.publish(SubjectImportStarted, session)
}

// PublishImportCompleted publishes an import.completed event
func (p *Publisher) PublishImportCompleted(session *models.ImportSession) {
	p.publish(SubjectImportCompleted, session)
}

// PublishImportFailed publishes an import.failed event
func (p *Publisher) PublishImportFailed(session *models.ImportSession) {
	p.publish(SubjectImportFailed, session)
}

// publish is fire-and-forget so event publishing never blocks the pipeline
func (p *Publisher) publish(subject string, session *models.ImportSession) {
	event := ImportEvent{
		EventType:    subject,
		SessionID:    session.ID.String(),
		TenantID:     session.TenantID,
		InitiatorID:  session.InitiatorID,
		FileName:     session.FileName,
		TotalRows:    session.TotalRows,
		RowsAccepted: session.RowsAccepted,
		RowsRejected: session.RowsRejected,
		OccurredAt:   time.Now(),
	}

	go func() {
		data, err := json.Marshal(event)
		if err != nil {
			p.logger.WithError(err).Error("Failed to marshal import event")
			return
		}
		if err := p.nc.Publish(subject, data); err != nil {
			p.logger.WithFields(logrus.Fields{
				"subject":   subject,
				"sessionId": event.SessionID,
				"tenantId":  event.TenantID,
			}).WithError(err).Error("Failed to publish import event")
		}
	}()
}
