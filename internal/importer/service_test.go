package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"product-import-service/internal/models"
	"product-import-service/internal/repository"
)

// MockImportRepository is a mock implementation of ImportRepositoryInterface
type MockImportRepository struct {
	mock.Mock
}

var _ repository.ImportRepositoryInterface = (*MockImportRepository)(nil)

func (m *MockImportRepository) Create(ctx context.Context, session *models.ImportSession) error {
	args := m.Called(ctx, session)
	if args.Error(0) == nil && session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockImportRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportSession, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportSession), args.Error(1)
}

func (m *MockImportRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.ImportSession, int64, error) {
	args := m.Called(ctx, tenantID, limit, offset)
	return args.Get(0).([]models.ImportSession), args.Get(1).(int64), args.Error(2)
}

func (m *MockImportRepository) Update(ctx context.Context, session *models.ImportSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockImportRepository) UpdateCounters(ctx context.Context, session *models.ImportSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockImportRepository) Transition(ctx context.Context, session *models.ImportSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockImportRepository) UpdateProgress(ctx context.Context, id uuid.UUID, stage models.ImportStage, percent int, message string) error {
	args := m.Called(ctx, id, stage, percent, message)
	return args.Error(0)
}

func (m *MockImportRepository) GetStatus(ctx context.Context, id uuid.UUID) (models.ImportStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.ImportStatus), args.Error(1)
}

func (m *MockImportRepository) SetStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.ImportStatus) error {
	args := m.Called(ctx, tenantID, id, status)
	return args.Error(0)
}

func (m *MockImportRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockImportRepository) GetProgress(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportSessionProgress, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ImportSessionProgress), args.Error(1)
}

// stubStorage is an in-memory StorageClient
type stubStorage struct {
	files map[string][]byte
}

func newStubStorage() *stubStorage {
	return &stubStorage{files: make(map[string][]byte)}
}

func (s *stubStorage) Upload(ctx context.Context, tenantID, fileName string, data []byte) (string, error) {
	ref := fmt.Sprintf("%s/%s", tenantID, fileName)
	s.files[ref] = data
	return ref, nil
}

func (s *stubStorage) Download(ctx context.Context, ref string) ([]byte, error) {
	data, ok := s.files[ref]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", ref)
	}
	return data, nil
}

// stubTenants answers with a fixed fiscal regime
type stubTenants struct {
	regime models.FiscalRegime
}

func (s *stubTenants) GetFiscalRegime(ctx context.Context, tenantID string) (models.FiscalRegime, error) {
	return s.regime, nil
}

// csvSafeCells swaps comma decimal separators for dots so the values
// survive CSV encoding, then applies the overrides.
func csvSafeCells(overrides map[int]string) []string {
	safe := map[int]string{
		models.ColCostPrice:    "4.50",
		models.ColDefaultPrice: "8.99",
		models.ColPISRate:      "1.65",
		models.ColCOFINSRate:   "7.6",
		models.ColNetWeight:    "2.1",
	}
	for col, v := range overrides {
		safe[col] = v
	}
	return validCells(safe)
}

func csvFile(rows ...[]string) []byte {
	var b strings.Builder
	b.WriteString("header\n")
	for _, cells := range rows {
		b.WriteString(strings.Join(cells, ","))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func primedSession(storage *stubStorage, data []byte) models.ImportSession {
	ref := "tenant-1/produtos.csv"
	storage.files[ref] = data
	return models.ImportSession{
		ID:          uuid.New(),
		TenantID:    "tenant-1",
		InitiatorID: "user-1",
		FileName:    "produtos.csv",
		FileRef:     ref,
		Status:      models.ImportStatusProcessing,
	}
}

func TestRun_HappyPath(t *testing.T) {
	sessions := new(MockImportRepository)
	catalog := new(MockCatalogRepository)
	storage := newStubStorage()

	data := csvFile(
		csvSafeCells(nil),
		csvSafeCells(map[int]string{models.ColCode: "10035", models.ColBarcode: "", models.ColGroup: "Cervejas"}),
	)
	session := primedSession(storage, data)

	var updates []models.ImportSession
	record := func(args mock.Arguments) {
		updates = append(updates, *args.Get(1).(*models.ImportSession))
	}
	sessions.On("Transition", mock.Anything, mock.AnythingOfType("*models.ImportSession")).Run(record).Return(nil)
	sessions.On("UpdateCounters", mock.Anything, mock.AnythingOfType("*models.ImportSession")).Run(record).Return(nil)
	sessions.On("UpdateProgress", mock.Anything, session.ID, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sessions.On("GetStatus", mock.Anything, session.ID).Return(models.ImportStatusProcessing, nil)

	catalog.On("GetCatalogSnapshot", mock.Anything, "tenant-1").Return(models.NewCatalogSnapshot(), nil)
	catalog.On("ListGroups", mock.Anything, "tenant-1").Return([]models.ProductGroup{}, nil)
	catalog.On("CreateGroups", mock.Anything, mock.Anything).Return(nil)

	var createdProducts []*models.Product
	catalog.On("BulkCreateProducts", mock.Anything, "tenant-1", mock.Anything).
		Run(func(args mock.Arguments) {
			createdProducts = args.Get(2).([]*models.Product)
		}).Return(2, nil)

	svc := NewService(sessions, catalog, storage, &stubTenants{regime: models.RegimeSimplified}, nil, testLogger())
	svc.run(session)

	require.NotEmpty(t, updates)
	final := updates[len(updates)-1]
	assert.Equal(t, models.ImportStatusCompleted, final.Status)
	assert.Equal(t, models.ImportStageDone, final.Stage)
	assert.Equal(t, 100, final.ProgressPercent)
	assert.Equal(t, 2, final.TotalRows)
	assert.Equal(t, 2, final.RowsAccepted)
	assert.Equal(t, 0, final.RowsRejected)
	assert.NotNil(t, final.FinishedAt)
	assert.Nil(t, final.ErrorLog)

	require.Len(t, createdProducts, 2)
	for _, p := range createdProducts {
		require.NotNil(t, p.ImportSessionID)
		assert.Equal(t, session.ID, *p.ImportSessionID)
		assert.Equal(t, "user-1", p.CreatedByID)
		assert.NotNil(t, p.GroupID)
	}
}

func TestRun_MixedRowsKeepValidOnes(t *testing.T) {
	sessions := new(MockImportRepository)
	catalog := new(MockCatalogRepository)
	storage := newStubStorage()

	data := csvFile(
		csvSafeCells(nil),
		csvSafeCells(map[int]string{models.ColCode: "", models.ColBarcode: ""}), // missing code
	)
	session := primedSession(storage, data)

	var updates []models.ImportSession
	record := func(args mock.Arguments) {
		updates = append(updates, *args.Get(1).(*models.ImportSession))
	}
	sessions.On("Transition", mock.Anything, mock.Anything).Run(record).Return(nil)
	sessions.On("UpdateCounters", mock.Anything, mock.Anything).Run(record).Return(nil)
	sessions.On("UpdateProgress", mock.Anything, session.ID, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sessions.On("GetStatus", mock.Anything, session.ID).Return(models.ImportStatusProcessing, nil)

	catalog.On("GetCatalogSnapshot", mock.Anything, "tenant-1").Return(models.NewCatalogSnapshot(), nil)
	catalog.On("ListGroups", mock.Anything, "tenant-1").Return([]models.ProductGroup{}, nil)
	catalog.On("CreateGroups", mock.Anything, mock.Anything).Return(nil)
	catalog.On("BulkCreateProducts", mock.Anything, "tenant-1", mock.Anything).Return(1, nil)

	svc := NewService(sessions, catalog, storage, &stubTenants{regime: models.RegimeSimplified}, nil, testLogger())
	svc.run(session)

	final := updates[len(updates)-1]
	assert.Equal(t, models.ImportStatusCompleted, final.Status)
	assert.Equal(t, 1, final.RowsAccepted)
	assert.Equal(t, 1, final.RowsRejected)
	require.NotNil(t, final.ErrorLog)
	assert.NotEmpty(t, *final.ErrorLog)
}

func TestRun_ParseFailureFailsSession(t *testing.T) {
	sessions := new(MockImportRepository)
	catalog := new(MockCatalogRepository)
	storage := newStubStorage()

	session := primedSession(storage, []byte("")) // empty file

	var updates []models.ImportSession
	sessions.On("Transition", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			updates = append(updates, *args.Get(1).(*models.ImportSession))
		}).Return(nil)
	sessions.On("UpdateProgress", mock.Anything, session.ID, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(sessions, catalog, storage, &stubTenants{regime: models.RegimeSimplified}, nil, testLogger())
	svc.run(session)

	final := updates[len(updates)-1]
	assert.Equal(t, models.ImportStatusFailed, final.Status)
	assert.Equal(t, 100, final.ProgressPercent)
	require.NotNil(t, final.FinishedAt)

	// A fatal failure with no row errors gets one synthetic error entry
	require.NotNil(t, final.ErrorLog)
	require.Len(t, *final.ErrorLog, 1)
	assert.Equal(t, 0, (*final.ErrorLog)[0].Row)

	catalog.AssertNotCalled(t, "BulkCreateProducts", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_AllRowsRejectedFailsSession(t *testing.T) {
	sessions := new(MockImportRepository)
	catalog := new(MockCatalogRepository)
	storage := newStubStorage()

	data := csvFile(csvSafeCells(map[int]string{models.ColCode: "ABC", models.ColBarcode: ""}))
	session := primedSession(storage, data)

	var updates []models.ImportSession
	record := func(args mock.Arguments) {
		updates = append(updates, *args.Get(1).(*models.ImportSession))
	}
	sessions.On("Transition", mock.Anything, mock.Anything).Run(record).Return(nil)
	sessions.On("UpdateCounters", mock.Anything, mock.Anything).Run(record).Return(nil)
	sessions.On("UpdateProgress", mock.Anything, session.ID, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sessions.On("GetStatus", mock.Anything, session.ID).Return(models.ImportStatusProcessing, nil)

	catalog.On("GetCatalogSnapshot", mock.Anything, "tenant-1").Return(models.NewCatalogSnapshot(), nil)

	svc := NewService(sessions, catalog, storage, &stubTenants{regime: models.RegimeSimplified}, nil, testLogger())
	svc.run(session)

	final := updates[len(updates)-1]
	assert.Equal(t, models.ImportStatusFailed, final.Status)
	assert.Equal(t, 1, final.RowsRejected)
	require.NotNil(t, final.ErrorLog)
	assert.NotEmpty(t, *final.ErrorLog)

	catalog.AssertNotCalled(t, "ListGroups", mock.Anything, mock.Anything)
	catalog.AssertNotCalled(t, "BulkCreateProducts", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_CancellationStopsBeforeGroups(t *testing.T) {
	sessions := new(MockImportRepository)
	catalog := new(MockCatalogRepository)
	storage := newStubStorage()

	data := csvFile(csvSafeCells(nil))
	session := primedSession(storage, data)

	sessions.On("Transition", mock.Anything, mock.Anything).Return(nil)
	sessions.On("UpdateProgress", mock.Anything, session.ID, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sessions.On("GetStatus", mock.Anything, session.ID).Return(models.ImportStatusCancelled, nil)

	catalog.On("GetCatalogSnapshot", mock.Anything, "tenant-1").Return(models.NewCatalogSnapshot(), nil)

	svc := NewService(sessions, catalog, storage, &stubTenants{regime: models.RegimeSimplified}, nil, testLogger())
	svc.run(session)

	// A cancelled session keeps its last persisted counters
	sessions.AssertNotCalled(t, "UpdateCounters", mock.Anything, mock.Anything)
	catalog.AssertNotCalled(t, "ListGroups", mock.Anything, mock.Anything)
	catalog.AssertNotCalled(t, "CreateGroups", mock.Anything, mock.Anything)
	catalog.AssertNotCalled(t, "BulkCreateProducts", mock.Anything, mock.Anything, mock.Anything)
}

// fakeSessionStore persists a single session with the same write semantics
// as the real repository: Update overwrites the whole record, while
// UpdateCounters and Transition are no-ops once the stored session is
// terminal. It honours context cancellation the way a real database driver
// would.
type fakeSessionStore struct {
	mu     sync.Mutex
	stored models.ImportSession
}

var _ repository.ImportRepositoryInterface = (*fakeSessionStore)(nil)

func (f *fakeSessionStore) terminalLocked() bool {
	return f.stored.Status.IsTerminal()
}

func (f *fakeSessionStore) Create(ctx context.Context, session *models.ImportSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = *session
	return nil
}

func (f *fakeSessionStore) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.stored
	return &stored, nil
}

func (f *fakeSessionStore) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.ImportSession, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []models.ImportSession{f.stored}, 1, nil
}

func (f *fakeSessionStore) Update(ctx context.Context, session *models.ImportSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = *session
	return nil
}

func (f *fakeSessionStore) UpdateCounters(ctx context.Context, session *models.ImportSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.terminalLocked() {
		return nil
	}
	f.stored.TotalRows = session.TotalRows
	f.stored.RowsProcessed = session.RowsProcessed
	f.stored.RowsAccepted = session.RowsAccepted
	f.stored.RowsRejected = session.RowsRejected
	f.stored.RowsSkipped = session.RowsSkipped
	f.stored.GroupsCreated = session.GroupsCreated
	f.stored.GroupsExisting = session.GroupsExisting
	f.stored.ErrorLog = session.ErrorLog
	return nil
}

func (f *fakeSessionStore) Transition(ctx context.Context, session *models.ImportSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.terminalLocked() {
		return nil
	}
	f.stored = *session
	return nil
}

func (f *fakeSessionStore) UpdateProgress(ctx context.Context, id uuid.UUID, stage models.ImportStage, percent int, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if percent < f.stored.ProgressPercent {
		return nil
	}
	f.stored.Stage = stage
	f.stored.ProgressPercent = percent
	f.stored.StatusMessage = message
	return nil
}

func (f *fakeSessionStore) GetStatus(ctx context.Context, id uuid.UUID) (models.ImportStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored.Status, nil
}

func (f *fakeSessionStore) SetStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.ImportStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored.Status = status
	return nil
}

func (f *fakeSessionStore) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	return nil
}

func (f *fakeSessionStore) GetProgress(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportSessionProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	progress := f.stored.ToProgress()
	return &progress, nil
}

func (f *fakeSessionStore) snapshot() models.ImportSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored
}

// A user cancellation that lands while the run is busy must stick: the run
// still holds an in-memory copy saying PROCESSING, but none of its writes
// may revive the session or push it to COMPLETED.
func TestRun_CancelledSessionIsNeverRevived(t *testing.T) {
	catalog := new(MockCatalogRepository)
	storage := newStubStorage()

	data := csvFile(csvSafeCells(nil))
	session := primedSession(storage, data)

	store := &fakeSessionStore{stored: session}
	store.stored.Status = models.ImportStatusCancelled
	store.stored.StatusMessage = "Cancelled by user"

	catalog.On("GetCatalogSnapshot", mock.Anything, "tenant-1").Return(models.NewCatalogSnapshot(), nil)

	svc := NewService(store, catalog, storage, &stubTenants{regime: models.RegimeSimplified}, nil, testLogger())
	svc.run(session)

	final := store.snapshot()
	assert.Equal(t, models.ImportStatusCancelled, final.Status)
	assert.Equal(t, 0, final.RowsAccepted, "counters stay frozen after cancellation")
	assert.Nil(t, final.ErrorLog)

	catalog.AssertNotCalled(t, "ListGroups", mock.Anything, mock.Anything)
	catalog.AssertNotCalled(t, "CreateGroups", mock.Anything, mock.Anything)
	catalog.AssertNotCalled(t, "BulkCreateProducts", mock.Anything, mock.Anything, mock.Anything)
}

// The terminal write runs under its own context, so a failure can still be
// recorded after the run's deadline has expired.
func TestFail_RecordsFailureIndependentOfRunContext(t *testing.T) {
	catalog := new(MockCatalogRepository)
	storage := newStubStorage()

	session := primedSession(storage, csvFile(csvSafeCells(nil)))
	store := &fakeSessionStore{stored: session}

	svc := NewService(store, catalog, storage, &stubTenants{regime: models.RegimeSimplified}, nil, testLogger())
	svc.fail(&session, "run exceeded its deadline")

	final := store.snapshot()
	assert.Equal(t, models.ImportStatusFailed, final.Status)
	assert.Equal(t, "run exceeded its deadline", final.StatusMessage)
	require.NotNil(t, final.FinishedAt)
	require.NotNil(t, final.ErrorLog)
	require.Len(t, *final.ErrorLog, 1)
	assert.Equal(t, 0, (*final.ErrorLog)[0].Row)
}

func TestStart_CreatesSessionAndStoresFile(t *testing.T) {
	sessions := new(MockImportRepository)
	catalog := new(MockCatalogRepository)
	storage := newStubStorage()

	data := csvFile(csvSafeCells(nil))

	sessions.On("Create", mock.Anything, mock.AnythingOfType("*models.ImportSession")).Return(nil)
	// The background run may progress before the test ends; keep every
	// call it can make primed.
	sessions.On("Transition", mock.Anything, mock.Anything).Return(nil)
	sessions.On("UpdateCounters", mock.Anything, mock.Anything).Return(nil)
	sessions.On("UpdateProgress", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sessions.On("GetStatus", mock.Anything, mock.Anything).Return(models.ImportStatusProcessing, nil)
	catalog.On("GetCatalogSnapshot", mock.Anything, "tenant-1").Return(models.NewCatalogSnapshot(), nil)
	catalog.On("ListGroups", mock.Anything, "tenant-1").Return([]models.ProductGroup{}, nil)
	catalog.On("CreateGroups", mock.Anything, mock.Anything).Return(nil)
	catalog.On("BulkCreateProducts", mock.Anything, "tenant-1", mock.Anything).Return(1, nil)

	svc := NewService(sessions, catalog, storage, &stubTenants{regime: models.RegimeSimplified}, nil, testLogger())
	session, err := svc.Start(context.Background(), "tenant-1", "user-1", "produtos.csv", data)

	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusStarted, session.Status)
	assert.Equal(t, models.ImportStageUploading, session.Stage)
	assert.Equal(t, 5, session.ProgressPercent)
	assert.Equal(t, int64(len(data)), session.FileSize)
	assert.NotEmpty(t, session.FileRef)
	assert.Contains(t, storage.files, session.FileRef)
}

func TestReprocess_RejectsRunningSession(t *testing.T) {
	sessions := new(MockImportRepository)
	catalog := new(MockCatalogRepository)
	id := uuid.New()

	sessions.On("GetByID", mock.Anything, "tenant-1", id).Return(&models.ImportSession{
		ID:       id,
		TenantID: "tenant-1",
		Status:   models.ImportStatusProcessing,
	}, nil)

	svc := NewService(sessions, catalog, newStubStorage(), &stubTenants{regime: models.RegimeSimplified}, nil, testLogger())
	_, err := svc.Reprocess(context.Background(), "tenant-1", id)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already being processed")
}

func TestReprocess_ResetsCountersAndRestarts(t *testing.T) {
	sessions := new(MockImportRepository)
	catalog := new(MockCatalogRepository)
	storage := newStubStorage()

	data := csvFile(csvSafeCells(nil))
	old := primedSession(storage, data)
	old.Status = models.ImportStatusFailed
	old.RowsRejected = 7
	errorLog := models.ValidationErrorList{{Row: 1, Message: "old failure"}}
	old.ErrorLog = &errorLog

	sessions.On("GetByID", mock.Anything, "tenant-1", old.ID).Return(&old, nil)
	sessions.On("Update", mock.Anything, mock.Anything).Return(nil)
	sessions.On("Transition", mock.Anything, mock.Anything).Return(nil)
	sessions.On("UpdateCounters", mock.Anything, mock.Anything).Return(nil)
	sessions.On("UpdateProgress", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	sessions.On("GetStatus", mock.Anything, mock.Anything).Return(models.ImportStatusProcessing, nil)
	catalog.On("GetCatalogSnapshot", mock.Anything, "tenant-1").Return(models.NewCatalogSnapshot(), nil)
	catalog.On("ListGroups", mock.Anything, "tenant-1").Return([]models.ProductGroup{}, nil)
	catalog.On("CreateGroups", mock.Anything, mock.Anything).Return(nil)
	catalog.On("BulkCreateProducts", mock.Anything, "tenant-1", mock.Anything).Return(1, nil)

	svc := NewService(sessions, catalog, storage, &stubTenants{regime: models.RegimeSimplified}, nil, testLogger())
	session, err := svc.Reprocess(context.Background(), "tenant-1", old.ID)

	require.NoError(t, err)
	assert.Equal(t, models.ImportStatusProcessing, session.Status)
	assert.Equal(t, old.ID, session.ID, "session identity is preserved")
	assert.Equal(t, old.FileRef, session.FileRef, "file reference is preserved")
	assert.Equal(t, 0, session.RowsRejected)
	assert.Nil(t, session.ErrorLog)
	assert.Nil(t, session.FinishedAt)
}
