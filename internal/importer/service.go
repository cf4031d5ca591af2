package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"product-import-service/internal/metrics"
	"product-import-service/internal/models"
	"product-import-service/internal/repository"
)

// RunTimeout bounds one background import run
const RunTimeout = 30 * time.Minute

// finishTimeout bounds the terminal status write. It is deliberately
// independent of the run context: a run that died because RunTimeout
// expired must still be markable as failed.
const finishTimeout = 10 * time.Second

// Progress checkpoints per stage. Progress is monotonically non-decreasing
// within one run; a reprocess resets it before the new run starts.
const (
	progressUploading = 5
	progressParsing   = 10
	progressValidate  = 20
	progressGroups    = 60
	progressProducts  = 80
	progressDone      = 100
)

// StorageClient fetches and stores raw file bytes by opaque reference
type StorageClient interface {
	Upload(ctx context.Context, tenantID, fileName string, data []byte) (string, error)
	Download(ctx context.Context, ref string) ([]byte, error)
}

// TenantClient resolves tenant-level context needed by validation
type TenantClient interface {
	GetFiscalRegime(ctx context.Context, tenantID string) (models.FiscalRegime, error)
}

// EventPublisher publishes import lifecycle events; nil-safe via NoopEvents
type EventPublisher interface {
	PublishImportStarted(session *models.ImportSession)
	PublishImportCompleted(session *models.ImportSession)
	PublishImportFailed(session *models.ImportSession)
}

// NoopEvents is used when NATS is not configured
type NoopEvents struct{}

func (NoopEvents) PublishImportStarted(*models.ImportSession)   {}
func (NoopEvents) PublishImportCompleted(*models.ImportSession) {}
func (NoopEvents) PublishImportFailed(*models.ImportSession)    {}

// Service drives one import session through the pipeline: parse, validate,
// resolve groups, create products. Each run is single-threaded and updates
// the persisted session at stage checkpoints so callers can poll instead
// of holding a blocking connection.
type Service struct {
	sessions repository.ImportRepositoryInterface
	catalog  repository.CatalogRepositoryInterface
	storage  StorageClient
	tenants  TenantClient
	events   EventPublisher
	logger   *logrus.Entry
}

func NewService(
	sessions repository.ImportRepositoryInterface,
	catalog repository.CatalogRepositoryInterface,
	storage StorageClient,
	tenants TenantClient,
	events EventPublisher,
	logger *logrus.Logger,
) *Service {
	if events == nil {
		events = NoopEvents{}
	}
	return &Service{
		sessions: sessions,
		catalog:  catalog,
		storage:  storage,
		tenants:  tenants,
		events:   events,
		logger:   logger.WithField("component", "import-service"),
	}
}

// Start stores the uploaded bytes, creates the session record and launches
// the pipeline in the background. The returned session is in its initial
// state; callers poll it for progress.
func (s *Service) Start(ctx context.Context, tenantID, initiatorID, fileName string, data []byte) (*models.ImportSession, error) {
	ref, err := s.storage.Upload(ctx, tenantID, fileName, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	session := &models.ImportSession{
		TenantID:        tenantID,
		InitiatorID:     initiatorID,
		FileName:        fileName,
		FileRef:         ref,
		FileSize:        int64(len(data)),
		Status:          models.ImportStatusStarted,
		Stage:           models.ImportStageUploading,
		ProgressPercent: progressUploading,
		StatusMessage:   "File received, waiting for processing",
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create import session: %w", err)
	}

	metrics.ImportsStarted.Inc()
	s.events.PublishImportStarted(session)
	go s.run(*session)

	return session, nil
}

// Reprocess re-runs the pipeline against an existing session's stored file
// without requiring re-upload. Run-scoped counters and the error log are
// reset; the session identity and file reference are preserved.
func (s *Service) Reprocess(ctx context.Context, tenantID string, sessionID uuid.UUID) (*models.ImportSession, error) {
	session, err := s.sessions.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.ImportStatusProcessing {
		return nil, fmt.Errorf("session is already being processed")
	}

	session.ResetCounters()
	session.Status = models.ImportStatusProcessing
	session.Stage = models.ImportStageParsing
	session.ProgressPercent = 0
	session.StatusMessage = "Reprocessing queued"
	session.StartedAt = time.Now()
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to reset import session: %w", err)
	}

	metrics.ImportsStarted.Inc()
	go s.run(*session)

	return session, nil
}

// run executes the pipeline stages strictly in sequence for one session.
// It owns its own context: the initiating request has already returned.
func (s *Service) run(session models.ImportSession) {
	ctx, cancel := context.WithTimeout(context.Background(), RunTimeout)
	defer cancel()

	log := s.logger.WithFields(logrus.Fields{
		"sessionId": session.ID.String(),
		"tenantId":  session.TenantID,
		"fileName":  session.FileName,
	})

	session.Status = models.ImportStatusProcessing
	session.Stage = models.ImportStageParsing
	session.StatusMessage = "Reading file"
	if err := s.sessions.Transition(ctx, &session); err != nil {
		log.WithError(err).Error("Failed to mark session as processing")
		return
	}
	s.checkpoint(ctx, &session, models.ImportStageParsing, progressParsing, "Reading file")

	data, err := s.storage.Download(ctx, session.FileRef)
	if err != nil {
		s.fail(&session, fmt.Sprintf("Failed to fetch stored file: %v", err))
		return
	}

	parsed, err := Parse(session.FileName, data)
	if err != nil {
		s.fail(&session, fmt.Sprintf("Failed to parse file: %v", err))
		return
	}

	session.TotalRows = parsed.TotalRows
	session.RowsSkipped = parsed.BlankRows
	s.checkpoint(ctx, &session, models.ImportStageValidating, progressValidate,
		fmt.Sprintf("Validating %d rows", len(parsed.Rows)))

	regime, err := s.tenants.GetFiscalRegime(ctx, session.TenantID)
	if err != nil {
		s.fail(&session, fmt.Sprintf("Failed to resolve tenant fiscal regime: %v", err))
		return
	}

	snapshot, err := s.catalog.GetCatalogSnapshot(ctx, session.TenantID)
	if err != nil {
		s.fail(&session, fmt.Sprintf("Failed to load catalog snapshot: %v", err))
		return
	}

	outcome := NewOrchestrator(regime, snapshot).ValidateAll(parsed.Rows)

	if s.cancelled(ctx, session.ID, log) {
		return
	}

	// Counters and the error log are written in one batch update, not per
	// row, to avoid excessive persistence traffic on large files. The write
	// is targeted and never touches status, so a cancellation landing right
	// here is not clobbered.
	session.RowsProcessed = outcome.RowsProcessed
	session.RowsAccepted = len(outcome.Accepted)
	session.RowsRejected = outcome.RowsRejected
	if len(outcome.Errors) > 0 {
		errorLog := models.ValidationErrorList(outcome.Errors)
		session.ErrorLog = &errorLog
	}
	if err := s.sessions.UpdateCounters(ctx, &session); err != nil {
		log.WithError(err).Error("Failed to persist validation counters")
		return
	}

	metrics.RowsAccepted.Add(float64(session.RowsAccepted))
	metrics.RowsRejected.Add(float64(session.RowsRejected))

	if len(outcome.Accepted) == 0 {
		s.fail(&session, "Validation rejected every row; nothing to import")
		return
	}

	s.checkpoint(ctx, &session, models.ImportStageResolvingGroups, progressGroups,
		"Validation finished, resolving product groups")

	names := make([]string, 0, len(outcome.Accepted))
	for _, accepted := range outcome.Accepted {
		names = append(names, accepted.GroupName)
	}

	resolution, err := NewGroupResolver(s.catalog, log.Logger).Resolve(ctx, session.TenantID, session.InitiatorID, names)
	if err != nil {
		s.fail(&session, fmt.Sprintf("Failed to resolve product groups: %v", err))
		return
	}

	session.GroupsCreated = resolution.Created
	session.GroupsExisting = resolution.Existing
	metrics.GroupsCreated.Add(float64(resolution.Created))

	products := make([]*models.Product, 0, len(outcome.Accepted))
	for _, accepted := range outcome.Accepted {
		product := accepted.Product
		if groupID, ok := resolution.IDsByName[models.NormalizeGroupName(accepted.GroupName)]; ok {
			id := groupID
			product.GroupID = &id
		}
		sessionID := session.ID
		product.ImportSessionID = &sessionID
		product.CreatedByID = session.InitiatorID
		products = append(products, product)
	}

	if s.cancelled(ctx, session.ID, log) {
		return
	}

	s.checkpoint(ctx, &session, models.ImportStageCreatingProducts, progressProducts,
		fmt.Sprintf("Creating %d products", len(products)))

	if _, err := s.catalog.BulkCreateProducts(ctx, session.TenantID, products); err != nil {
		s.fail(&session, fmt.Sprintf("Failed to create products: %v", err))
		return
	}

	now := time.Now()
	session.Status = models.ImportStatusCompleted
	session.Stage = models.ImportStageDone
	session.ProgressPercent = progressDone
	session.StatusMessage = fmt.Sprintf("Import finished: %d created, %d rejected", session.RowsAccepted, session.RowsRejected)
	session.FinishedAt = &now
	if err := s.finish(&session); err != nil {
		log.WithError(err).Error("Failed to mark session as completed")
		return
	}

	metrics.ImportsCompleted.Inc()
	s.events.PublishImportCompleted(&session)
	log.WithFields(logrus.Fields{
		"rowsAccepted":  session.RowsAccepted,
		"rowsRejected":  session.RowsRejected,
		"groupsCreated": session.GroupsCreated,
	}).Info("Import completed")
}

// checkpoint advances stage, progress and message. The repository guards
// against progress ever going backwards mid-run.
func (s *Service) checkpoint(ctx context.Context, session *models.ImportSession, stage models.ImportStage, percent int, message string) {
	session.Stage = stage
	session.ProgressPercent = percent
	session.StatusMessage = message
	if err := s.sessions.UpdateProgress(ctx, session.ID, stage, percent, message); err != nil {
		s.logger.WithField("sessionId", session.ID.String()).WithError(err).Warn("Failed to persist progress checkpoint")
	}
}

// finish persists a terminal transition under its own short-lived context,
// so a run killed by RunTimeout can still record its outcome. The repository
// refuses the write if the session already reached another terminal state.
func (s *Service) finish(session *models.ImportSession) error {
	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()
	return s.sessions.Transition(ctx, session)
}

// fail marks the session as terminally failed, capturing the reason both
// in the status message and, when no row errors exist, as a single
// synthetic error log entry.
func (s *Service) fail(session *models.ImportSession, reason string) {
	now := time.Now()
	session.Status = models.ImportStatusFailed
	session.Stage = models.ImportStageDone
	session.ProgressPercent = progressDone
	session.StatusMessage = reason
	session.FinishedAt = &now

	if session.ErrorLog == nil && session.RowsRejected == 0 {
		errorLog := models.ValidationErrorList{{
			Row:     0,
			Kind:    models.ErrorKindInvalidValue,
			Message: reason,
		}}
		session.ErrorLog = &errorLog
	}

	if err := s.finish(session); err != nil {
		s.logger.WithField("sessionId", session.ID.String()).WithError(err).Error("Failed to mark session as failed")
	}

	metrics.ImportsFailed.Inc()
	s.events.PublishImportFailed(session)
	s.logger.WithFields(logrus.Fields{
		"sessionId": session.ID.String(),
		"tenantId":  session.TenantID,
	}).Warn(reason)
}

// cancelled checks the cooperative cancellation marker between stages.
// Cancellation is not a hard interrupt: in-flight validation finishes, the
// pipeline just refuses to enter the next stage.
func (s *Service) cancelled(ctx context.Context, sessionID uuid.UUID, log *logrus.Entry) bool {
	status, err := s.sessions.GetStatus(ctx, sessionID)
	if err != nil {
		log.WithError(err).Warn("Failed to read session status for cancellation check")
		return false
	}
	if status == models.ImportStatusCancelled {
		log.Info("Import cancelled by user, aborting before next stage")
		return true
	}
	return false
}
