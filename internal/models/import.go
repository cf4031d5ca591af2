package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ImportStatus represents the lifecycle status of an import session
type ImportStatus string

const (
	ImportStatusStarted    ImportStatus = "STARTED"
	ImportStatusProcessing ImportStatus = "PROCESSING"
	ImportStatusCompleted  ImportStatus = "COMPLETED"
	ImportStatusFailed     ImportStatus = "FAILED"
	ImportStatusCancelled  ImportStatus = "CANCELLED"
)

// IsTerminal reports whether the session reached a final state.
// Counters are frozen once a session is terminal.
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed || s == ImportStatusCancelled
}

// ImportStage is a free-form tag describing the current pipeline step
type ImportStage string

const (
	ImportStageUploading        ImportStage = "uploading"
	ImportStageParsing          ImportStage = "parsing"
	ImportStageValidating       ImportStage = "validating"
	ImportStageResolvingGroups  ImportStage = "resolving_groups"
	ImportStageCreatingProducts ImportStage = "creating_products"
	ImportStageDone             ImportStage = "done"
)

// FiscalRegime is the tenant-level tax classification that selects which
// tax-situation vocabulary applies (CSOSN for simplified, CST for normal)
type FiscalRegime string

const (
	RegimeSimplified FiscalRegime = "simplified"
	RegimeNormal     FiscalRegime = "normal"
)

// ErrorKind classifies a validation error for UI-side grouping
type ErrorKind string

const (
	ErrorKindMissingRequired ErrorKind = "missing_required"
	ErrorKindBadFormat       ErrorKind = "bad_format"
	ErrorKindBadLength       ErrorKind = "bad_length"
	ErrorKindInvalidValue    ErrorKind = "invalid_value"
)

// MaxErrorValueLen caps the offending value stored in the error log
const MaxErrorValueLen = 100

// ValidationError pinpoints one rule violation in the uploaded file
type ValidationError struct {
	Row         int       `json:"row"`
	Column      string    `json:"column"`
	ColumnIndex int       `json:"columnIndex"`
	Value       string    `json:"value,omitempty"`
	Kind        ErrorKind `json:"kind"`
	Message     string    `json:"message"`
}

// ValidationErrorList is stored as a JSONB column on the import session
type ValidationErrorList []ValidationError

func (l ValidationErrorList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *ValidationErrorList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// ImportSession represents one persisted attempt to import a product file
// for a tenant. The UI polls this record for progress and, on completion
// or failure, reads the error log from it.
type ImportSession struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string    `json:"tenantId" gorm:"not null;index"`
	InitiatorID string    `json:"initiatorId" gorm:"not null"`

	FileName string `json:"fileName" gorm:"not null"`
	FileRef  string `json:"fileRef" gorm:"not null"` // storage reference, resolvable via the file service
	FileSize int64  `json:"fileSize"`

	Status          ImportStatus `json:"status" gorm:"not null;default:'STARTED';index"`
	Stage           ImportStage  `json:"stage"`
	ProgressPercent int          `json:"progressPercent"`
	StatusMessage   string       `json:"statusMessage"`

	TotalRows      int `json:"totalRows"`
	RowsProcessed  int `json:"rowsProcessed"`
	RowsAccepted   int `json:"rowsAccepted"`
	RowsRejected   int `json:"rowsRejected"`
	RowsSkipped    int `json:"rowsSkipped"` // fully blank rows
	GroupsCreated  int `json:"groupsCreated"`
	GroupsExisting int `json:"groupsExisting"`

	ErrorLog *ValidationErrorList `json:"errorLog,omitempty" gorm:"type:jsonb"`

	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ImportSession) TableName() string {
	return "import_sessions"
}

// ProcessingDuration returns the elapsed wall time of the run, or the
// running duration if the session has not finished yet.
func (s *ImportSession) ProcessingDuration() time.Duration {
	if s.FinishedAt != nil {
		return s.FinishedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}

// ResetCounters clears run-scoped counters before a reprocess run.
// The session identity and file reference are preserved.
func (s *ImportSession) ResetCounters() {
	s.TotalRows = 0
	s.RowsProcessed = 0
	s.RowsAccepted = 0
	s.RowsRejected = 0
	s.RowsSkipped = 0
	s.GroupsCreated = 0
	s.GroupsExisting = 0
	s.ErrorLog = nil
	s.FinishedAt = nil
}

// ImportSessionProgress is the lightweight polling payload cached in Redis
type ImportSessionProgress struct {
	SessionID       uuid.UUID    `json:"sessionId"`
	Status          ImportStatus `json:"status"`
	Stage           ImportStage  `json:"stage"`
	ProgressPercent int          `json:"progressPercent"`
	StatusMessage   string       `json:"statusMessage"`
	TotalRows       int          `json:"totalRows"`
	RowsProcessed   int          `json:"rowsProcessed"`
	RowsAccepted    int          `json:"rowsAccepted"`
	RowsRejected    int          `json:"rowsRejected"`
}

// ToProgress builds the polling snapshot for a session
func (s *ImportSession) ToProgress() ImportSessionProgress {
	return ImportSessionProgress{
		SessionID:       s.ID,
		Status:          s.Status,
		Stage:           s.Stage,
		ProgressPercent: s.ProgressPercent,
		StatusMessage:   s.StatusMessage,
		TotalRows:       s.TotalRows,
		RowsProcessed:   s.RowsProcessed,
		RowsAccepted:    s.RowsAccepted,
		RowsRejected:    s.RowsRejected,
	}
}

// CatalogSnapshot holds the tenant's existing product codes, barcodes and
// registered units of measure, loaded once before a validation pass so the
// validators stay pure. Keys are trimmed; units are uppercased.
type CatalogSnapshot struct {
	Codes    map[string]struct{}
	Barcodes map[string]struct{}
	Units    map[string]struct{} // empty set means no registered units (permissive)
}

// NewCatalogSnapshot returns an empty snapshot with initialized sets
func NewCatalogSnapshot() *CatalogSnapshot {
	return &CatalogSnapshot{
		Codes:    make(map[string]struct{}),
		Barcodes: make(map[string]struct{}),
		Units:    make(map[string]struct{}),
	}
}
