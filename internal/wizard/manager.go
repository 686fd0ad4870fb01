// Package wizard drives the five-step guided upload flow: project name,
// upload, file selection, processing and completion. Each session owns its
// staged files and the progress streams feeding them.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valuation-console/backend/internal/fileutil"
	"github.com/valuation-console/backend/internal/models"
	"github.com/valuation-console/backend/internal/processing"
	"github.com/valuation-console/backend/internal/storage"
	"github.com/valuation-console/backend/internal/stream"
)

// MaxSessions limits concurrent wizard sessions.
const MaxSessions = 50

// SessionKeepAliveWindow is how long recently touched sessions survive cleanup.
const SessionKeepAliveWindow = 5 * time.Minute

var (
	// ErrNotFound means no wizard session exists with the given id.
	ErrNotFound = errors.New("wizard session not found")
	// ErrFileNotFound means the session has no staged file with the id.
	ErrFileNotFound = errors.New("staged file not found")
	// ErrNameRequired blocks leaving the project-name step.
	ErrNameRequired = errors.New("project name must not be empty")
	// ErrNoFiles blocks leaving the upload step.
	ErrNoFiles = errors.New("at least one file must be uploaded")
	// ErrNoSelection blocks starting processing.
	ErrNoSelection = errors.New("at least one file must be selected")
	// ErrBadStep means the operation is not legal at the current step.
	ErrBadStep = errors.New("operation not allowed at current step")
)

// Processor submits staged files to the processing backend.
type Processor interface {
	ProcessMultiple(ctx context.Context, files []processing.UploadFile, clientName, reportID string) (*processing.ProcessMultipleResponse, error)
}

// Subscription is an open progress stream that the manager must close.
type Subscription interface {
	Close()
}

// StreamOpener opens a progress stream for one document.
type StreamOpener interface {
	Connect(ctx context.Context, documentID string, onMessage stream.EventCallback, onError stream.ErrorCallback) (Subscription, error)
}

// ConsumerOpener adapts a stream.Consumer to the StreamOpener interface.
type ConsumerOpener struct {
	Consumer *stream.Consumer
}

func (o ConsumerOpener) Connect(ctx context.Context, documentID string, onMessage stream.EventCallback, onError stream.ErrorCallback) (Subscription, error) {
	return o.Consumer.Connect(ctx, documentID, onMessage, onError)
}

// IncomingFile is one file arriving from a multipart upload.
type IncomingFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// sessionState pairs the visible wizard state with the streams driving it.
type sessionState struct {
	state        *models.WizardState
	subs         map[string]Subscription // document id -> open stream
	docToFile    map[string]string       // document id -> staged file id
	lastAccessed time.Time
}

// Manager owns all wizard sessions.
type Manager struct {
	sessions map[string]*sessionState
	mu       sync.RWMutex
	store    storage.Store
	proc     Processor
	streams  StreamOpener
	maxFiles int
}

// NewManager creates a wizard manager. maxFiles caps staged files per
// session; zero means 20.
func NewManager(store storage.Store, proc Processor, streams StreamOpener, maxFiles int) *Manager {
	if maxFiles <= 0 {
		maxFiles = 20
	}
	return &Manager{
		sessions: make(map[string]*sessionState),
		store:    store,
		proc:     proc,
		streams:  streams,
		maxFiles: maxFiles,
	}
}

// Create starts a new wizard session at the project-name step.
func (m *Manager) Create() (*models.WizardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= MaxSessions {
		return nil, fmt.Errorf("too many active sessions (max %d)", MaxSessions)
	}

	state := &models.WizardState{
		ID:              uuid.New().String(),
		CurrentStep:     models.StepProjectName,
		Files:           []models.StagedFile{},
		SelectedFileIDs: []string{},
		CreatedAt:       time.Now(),
	}

	m.sessions[state.ID] = &sessionState{
		state:        state,
		subs:         make(map[string]Subscription),
		docToFile:    make(map[string]string),
		lastAccessed: time.Now(),
	}

	fmt.Printf("[Wizard %s] Session created\n", shortID(state.ID))
	return copyState(state), nil
}

// Get returns a snapshot of a session's state.
func (m *Manager) Get(id string) (*models.WizardState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyState(sess.state), nil
}

// Touch updates the session's last-accessed time so cleanup skips it.
func (m *Manager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return false
	}
	sess.lastAccessed = time.Now()
	return true
}

// SetProjectName stores the trimmed project name.
func (m *Manager) SetProjectName(id, name string) (*models.WizardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	sess.state.ProjectName = strings.TrimSpace(name)
	sess.lastAccessed = time.Now()
	return copyState(sess.state), nil
}

// AddFiles stages uploaded files. Files that are not PDFs are silently
// skipped; the returned accepted count tells the caller how many survived.
// Newly staged files are selected automatically.
func (m *Manager) AddFiles(id string, uploads []IncomingFile) (*models.WizardState, int, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, 0, ErrNotFound
	}
	if sess.state.CurrentStep != models.StepUpload {
		m.mu.Unlock()
		return nil, 0, ErrBadStep
	}
	room := m.maxFiles - len(sess.state.Files)
	m.mu.Unlock()

	// Persist outside the lock; disk writes are slow
	var staged []models.StagedFile
	for _, up := range uploads {
		if len(staged) >= room {
			break
		}
		if !fileutil.IsPDF(up.Name, up.ContentType) {
			continue
		}

		info, err := m.store.Save(up.Name, up.ContentType, up.Content)
		if err != nil {
			return nil, 0, fmt.Errorf("storing %s: %w", up.Name, err)
		}

		staged = append(staged, models.StagedFile{
			ID:         uuid.New().String(),
			StorageID:  info.ID,
			Name:       up.Name,
			Size:       info.Size,
			UploadedAt: info.UploadedAt,
			Status:     models.FileStatusPending,
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok = m.sessions[id]
	if !ok {
		for _, f := range staged {
			m.store.Delete(f.StorageID)
		}
		return nil, 0, ErrNotFound
	}

	// Another upload may have landed while the lock was released, so the
	// cap is rechecked; overflow files are removed from storage.
	accepted := 0
	for _, f := range staged {
		if len(sess.state.Files) >= m.maxFiles {
			if err := m.store.Delete(f.StorageID); err != nil {
				fmt.Printf("[Wizard %s] Failed to delete stored file: %v\n", shortID(id), err)
			}
			continue
		}
		sess.state.Files = append(sess.state.Files, f)
		sess.state.SelectedFileIDs = append(sess.state.SelectedFileIDs, f.ID)
		accepted++
	}
	sess.lastAccessed = time.Now()

	fmt.Printf("[Wizard %s] Staged %d of %d uploaded files\n", shortID(id), accepted, len(uploads))
	return copyState(sess.state), accepted, nil
}

// RemoveFile drops a staged file and prunes it from the selection.
func (m *Manager) RemoveFile(id, fileID string) (*models.WizardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	var storageID string
	found := false
	files := make([]models.StagedFile, 0, len(sess.state.Files))
	for _, f := range sess.state.Files {
		if f.ID == fileID {
			found = true
			storageID = f.StorageID
			continue
		}
		files = append(files, f)
	}
	if !found {
		return nil, ErrFileNotFound
	}

	sess.state.Files = files
	sess.state.SelectedFileIDs = removeString(sess.state.SelectedFileIDs, fileID)
	sess.lastAccessed = time.Now()

	if storageID != "" {
		if err := m.store.Delete(storageID); err != nil {
			fmt.Printf("[Wizard %s] Failed to delete stored file: %v\n", shortID(id), err)
		}
	}

	return copyState(sess.state), nil
}

// SetSelection replaces the selected file set. Ids that do not belong to a
// staged file are dropped, keeping the selection a subset of the files.
func (m *Manager) SetSelection(id string, fileIDs []string) (*models.WizardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	staged := make(map[string]bool, len(sess.state.Files))
	for _, f := range sess.state.Files {
		staged[f.ID] = true
	}

	selection := make([]string, 0, len(fileIDs))
	seen := make(map[string]bool, len(fileIDs))
	for _, fid := range fileIDs {
		if staged[fid] && !seen[fid] {
			selection = append(selection, fid)
			seen[fid] = true
		}
	}

	sess.state.SelectedFileIDs = selection
	sess.lastAccessed = time.Now()
	return copyState(sess.state), nil
}

// Next advances one step. Leaving project-name requires a non-empty name;
// leaving upload requires at least one staged file. The selection step is
// left via StartProcessing and the processing step advances on its own.
func (m *Manager) Next(id string) (*models.WizardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	switch sess.state.CurrentStep {
	case models.StepProjectName:
		if strings.TrimSpace(sess.state.ProjectName) == "" {
			return nil, ErrNameRequired
		}
		sess.state.CurrentStep = models.StepUpload
	case models.StepUpload:
		if len(sess.state.Files) == 0 {
			return nil, ErrNoFiles
		}
		sess.state.CurrentStep = models.StepSelectFiles
	default:
		return nil, ErrBadStep
	}

	sess.lastAccessed = time.Now()
	return copyState(sess.state), nil
}

// Back returns to the previous step from upload or selection without
// resetting any state.
func (m *Manager) Back(id string) (*models.WizardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	switch sess.state.CurrentStep {
	case models.StepUpload:
		sess.state.CurrentStep = models.StepProjectName
	case models.StepSelectFiles:
		sess.state.CurrentStep = models.StepUpload
	default:
		return nil, ErrBadStep
	}

	sess.lastAccessed = time.Now()
	return copyState(sess.state), nil
}

// StartProcessing submits the selected files to the processing backend in
// batches, opens one progress stream per document and moves the wizard to
// the processing step. The wizard advances to complete on its own once
// every selected file finishes.
func (m *Manager) StartProcessing(ctx context.Context, id string) (*models.WizardState, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if sess.state.CurrentStep != models.StepSelectFiles {
		m.mu.Unlock()
		return nil, ErrBadStep
	}
	if len(sess.state.SelectedFileIDs) == 0 {
		m.mu.Unlock()
		return nil, ErrNoSelection
	}

	selected := make([]models.StagedFile, 0, len(sess.state.SelectedFileIDs))
	selectedSet := make(map[string]bool, len(sess.state.SelectedFileIDs))
	for _, fid := range sess.state.SelectedFileIDs {
		selectedSet[fid] = true
	}
	for _, f := range sess.state.Files {
		if selectedSet[f.ID] {
			selected = append(selected, f)
		}
	}

	projectName := sess.state.ProjectName
	sess.state.CurrentStep = models.StepProcessing
	m.setStatusLocked(sess, selectedSet, models.FileStatusProcessing)
	sess.lastAccessed = time.Now()
	m.mu.Unlock()

	fmt.Printf("[Wizard %s] Starting processing of %d files\n", shortID(id), len(selected))

	// Submit in backend-sized batches
	for start := 0; start < len(selected); start += processing.MaxBatchSize {
		end := start + processing.MaxBatchSize
		if end > len(selected) {
			end = len(selected)
		}
		batch := selected[start:end]

		uploads := make([]processing.UploadFile, 0, len(batch))
		readers := make([]io.ReadCloser, 0, len(batch))
		openFailed := false
		for _, f := range batch {
			r, err := m.store.Open(f.StorageID)
			if err != nil {
				m.failFiles(id, batch, fmt.Sprintf("reading stored file: %v", err))
				openFailed = true
				break
			}
			readers = append(readers, r)
			uploads = append(uploads, processing.UploadFile{Name: f.Name, Content: r})
		}
		if openFailed {
			closeAll(readers)
			continue
		}

		resp, err := m.proc.ProcessMultiple(ctx, uploads, projectName, id)
		closeAll(readers)
		if err != nil {
			m.failFiles(id, batch, err.Error())
			continue
		}

		// Document ids come back in submission order
		for i, f := range batch {
			if i >= len(resp.DocumentIDs) {
				m.failFiles(id, batch[i:], "backend returned no document id")
				break
			}
			m.attachStream(ctx, id, f.ID, resp.DocumentIDs[i])
		}
	}

	m.checkCompletion(id)
	return m.Get(id)
}

// attachStream records the document id for a staged file and opens its
// progress stream.
func (m *Manager) attachStream(ctx context.Context, sessionID, fileID, documentID string) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return
	}
	sess.docToFile[documentID] = fileID
	m.updateFileLocked(sess, fileID, func(f *models.StagedFile) {
		f.DocumentID = documentID
	})
	m.mu.Unlock()

	sub, err := m.streams.Connect(ctx, documentID,
		func(event models.ProcessingEvent) {
			m.applyEvent(sessionID, event)
		},
		func(err error) {
			m.onStreamError(sessionID, documentID, err)
		},
	)
	if err != nil {
		fmt.Printf("[Wizard %s] Failed to open stream for document %s: %v\n", shortID(sessionID), shortID(documentID), err)
		m.markFileError(sessionID, fileID, "could not open progress stream")
		return
	}

	m.mu.Lock()
	if sess, ok := m.sessions[sessionID]; ok {
		sess.subs[documentID] = sub
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	sub.Close()
}

// applyEvent folds one processing event into the file it belongs to.
// Files are replaced copy-on-write so concurrent streams never see a
// half-updated entry.
func (m *Manager) applyEvent(sessionID string, event models.ProcessingEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	fileID, ok := sess.docToFile[event.DocumentID]
	if !ok {
		return
	}

	m.updateFileLocked(sess, fileID, func(f *models.StagedFile) {
		applyEventToFile(f, event)
	})

	if event.EventType == models.EventStatusUpdate &&
		(event.Payload.Status == models.ProcessingCompleted || event.Payload.Status == models.ProcessingFailed) {
		m.closeStreamLocked(sess, event.DocumentID)
	}

	m.checkCompletionLocked(sess)
}

// applyEventToFile maps the five event types onto staged-file state.
func applyEventToFile(f *models.StagedFile, event models.ProcessingEvent) {
	p := event.Payload

	switch event.EventType {
	case models.EventStatusUpdate:
		switch p.Status {
		case models.ProcessingCompleted:
			f.Status = models.FileStatusCompleted
			f.Progress = 100
			if p.TotalPages > 0 {
				f.Pages = p.TotalPages
			} else if p.PagesExtracted > 0 {
				f.Pages = p.PagesExtracted
			}
			if p.Language != "" {
				f.Language = p.Language
			}
		case models.ProcessingFailed:
			f.Status = models.FileStatusError
			f.Error = p.Message
		default:
			f.Status = models.FileStatusProcessing
		}
	case models.EventPageStarted:
		f.Status = models.FileStatusProcessing
		if p.TotalPages > 0 && p.PageNumber > 0 {
			f.Progress = clampProgress(float64(p.PageNumber-1) / float64(p.TotalPages) * 100)
		}
	case models.EventPageCompleted:
		if p.PagesExtracted > 0 {
			f.Pages = p.PagesExtracted
		}
		if p.TotalPages > 0 && p.PagesExtracted > 0 {
			f.Progress = clampProgress(float64(p.PagesExtracted) / float64(p.TotalPages) * 100)
		}
	case models.EventPageError:
		// A single bad page does not fail the document
		f.Error = p.Message
	case models.EventError:
		f.Status = models.FileStatusError
		f.Error = p.Message
	}
}

// clampProgress holds progress below 100 until the terminal status arrives.
func clampProgress(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 99 {
		return 99
	}
	return p
}

// onStreamError marks the affected file failed. The stream closed itself.
func (m *Manager) onStreamError(sessionID, documentID string, err error) {
	fmt.Printf("[Wizard %s] Stream error for document %s: %v\n", shortID(sessionID), shortID(documentID), err)

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	delete(sess.subs, documentID)

	fileID, ok := sess.docToFile[documentID]
	if !ok {
		return
	}
	m.updateFileLocked(sess, fileID, func(f *models.StagedFile) {
		if f.Status != models.FileStatusCompleted {
			f.Status = models.FileStatusError
			f.Error = "stream connection failed"
		}
	})
	m.checkCompletionLocked(sess)
}

// SaveProject materializes a draft valuation report from the processed
// selection and resets the session back to the first step. Stored files
// the report references stay in storage; unselected leftovers are
// deleted. The wizard must be on the completion step.
func (m *Manager) SaveProject(id string) (*models.ValuationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.state.CurrentStep != models.StepComplete {
		return nil, ErrBadStep
	}

	now := time.Now()
	selectedSet := make(map[string]bool, len(sess.state.SelectedFileIDs))
	for _, fid := range sess.state.SelectedFileIDs {
		selectedSet[fid] = true
	}

	var reportFiles []models.ReportFile
	for _, f := range sess.state.Files {
		if !selectedSet[f.ID] {
			continue
		}
		reportFiles = append(reportFiles, models.ReportFile{
			ID:         f.ID,
			Name:       f.Name,
			Type:       models.FileTypeOriginal,
			Size:       fileutil.FormatFileSize(f.Size),
			UploadedAt: f.UploadedAt,
			URL:        "/api/v1/files/" + f.StorageID,
		})
	}

	report := &models.ValuationReport{
		ID:           uuid.New().String(),
		CustomerName: sess.state.ProjectName,
		BankName:     "HDFC Bank",
		PropertyType: models.PropertyResidential,
		Location:     "Chennai",
		Status:       models.ReportStatusDraft,
		CreatedAt:    sess.state.CreatedAt,
		UpdatedAt:    now,
		Year:         now.Format("2006"),
		Month:        now.Format("January"),
		Files:        reportFiles,
		Metadata:     initialMetadata(sess.state.ProjectName, now),
		Content: models.ReportContent{
			Summary:         "Auto-generated summary awaiting analysis.",
			PropertyDetails: "Details to be extracted.",
			ValuationMethod: "Comparable Sales",
			FinalValuation:  "Pending",
		},
		Comments:   []models.Comment{},
		AuditTrail: []models.AuditEntry{},
	}

	// Terminal events already closed the streams; clear any stragglers
	for docID, sub := range sess.subs {
		sub.Close()
		delete(sess.subs, docID)
	}
	// Unselected files are not referenced by the report
	for _, f := range sess.state.Files {
		if selectedSet[f.ID] || f.StorageID == "" {
			continue
		}
		if err := m.store.Delete(f.StorageID); err != nil {
			fmt.Printf("[Wizard %s] Failed to delete stored file: %v\n", shortID(id), err)
		}
	}

	sess.state.CurrentStep = models.StepProjectName
	sess.state.ProjectName = ""
	sess.state.Files = []models.StagedFile{}
	sess.state.SelectedFileIDs = []string{}
	sess.docToFile = make(map[string]string)
	sess.lastAccessed = time.Now()

	fmt.Printf("[Wizard %s] Project saved as report %s\n", shortID(id), shortID(report.ID))
	return report, nil
}

// initialMetadata mirrors the extraction defaults: period fields are
// trusted, bank and location are guesses that need review.
func initialMetadata(projectName string, now time.Time) models.ReportMetadata {
	return models.ReportMetadata{
		Year: models.MetadataField{
			Value:        now.Format("2006"),
			AIConfidence: models.ConfidenceHigh,
		},
		BankName: models.MetadataField{
			Value:        "HDFC Bank",
			AIConfidence: models.ConfidenceLow,
			NeedsReview:  true,
		},
		Month: models.MetadataField{
			Value:        now.Format("January"),
			AIConfidence: models.ConfidenceHigh,
		},
		CustomerName: models.MetadataField{
			Value:        projectName,
			AIConfidence: models.ConfidenceMedium,
		},
		PropertyType: models.MetadataField{
			Value:        string(models.PropertyResidential),
			AIConfidence: models.ConfidenceMedium,
		},
		Location: models.MetadataField{
			Value:        "Chennai",
			AIConfidence: models.ConfidenceLow,
			NeedsReview:  true,
		},
	}
}

// Restart resets a session back to the first step, closing streams and
// discarding staged files.
func (m *Manager) Restart(id string) (*models.WizardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}

	m.teardownLocked(sess)

	sess.state.CurrentStep = models.StepProjectName
	sess.state.ProjectName = ""
	sess.state.Files = []models.StagedFile{}
	sess.state.SelectedFileIDs = []string{}
	sess.docToFile = make(map[string]string)
	sess.lastAccessed = time.Now()

	fmt.Printf("[Wizard %s] Session restarted\n", shortID(id))
	return copyState(sess.state), nil
}

// Delete removes a session entirely.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	m.teardownLocked(sess)
	delete(m.sessions, id)
	return nil
}

// CleanupOldSessions removes idle sessions older than maxAge, keeping ones
// touched within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)

	for id, sess := range m.sessions {
		if sess.lastAccessed.After(keepAliveCutoff) {
			continue
		}
		if sess.lastAccessed.After(cutoff) {
			continue
		}

		m.teardownLocked(sess)
		delete(m.sessions, id)
		fmt.Printf("[Wizard %s] Cleaned up idle session (last accessed %s ago)\n",
			shortID(id), time.Since(sess.lastAccessed).Round(time.Second))
	}
}

// SessionCount returns the number of live sessions.
func (m *Manager) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// closeStreamLocked closes one document's progress stream. Caller holds the
// lock.
func (m *Manager) closeStreamLocked(sess *sessionState, documentID string) {
	if sub, ok := sess.subs[documentID]; ok {
		sub.Close()
		delete(sess.subs, documentID)
	}
}

// teardownLocked closes open streams and deletes staged files from storage.
// Caller holds the lock.
func (m *Manager) teardownLocked(sess *sessionState) {
	for docID, sub := range sess.subs {
		sub.Close()
		delete(sess.subs, docID)
	}
	for _, f := range sess.state.Files {
		if f.StorageID == "" {
			continue
		}
		if err := m.store.Delete(f.StorageID); err != nil {
			fmt.Printf("[Wizard %s] Failed to delete stored file: %v\n", shortID(sess.state.ID), err)
		}
	}
}

// checkCompletion advances processing → complete once every selected file
// reached a terminal state.
func (m *Manager) checkCompletion(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[id]; ok {
		m.checkCompletionLocked(sess)
	}
}

func (m *Manager) checkCompletionLocked(sess *sessionState) {
	if sess.state.CurrentStep != models.StepProcessing {
		return
	}

	selectedSet := make(map[string]bool, len(sess.state.SelectedFileIDs))
	for _, fid := range sess.state.SelectedFileIDs {
		selectedSet[fid] = true
	}

	done := 0
	completed := 0
	total := 0
	for _, f := range sess.state.Files {
		if !selectedSet[f.ID] {
			continue
		}
		total++
		switch f.Status {
		case models.FileStatusCompleted:
			done++
			completed++
		case models.FileStatusError:
			done++
		}
	}

	if total > 0 && done == total {
		sess.state.CurrentStep = models.StepComplete
		fmt.Printf("[Wizard %s] Processing finished: %d/%d files completed\n",
			shortID(sess.state.ID), completed, total)
	}
}

// failFiles marks a batch of files failed with the given message.
func (m *Manager) failFiles(sessionID string, files []models.StagedFile, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	for _, f := range files {
		m.updateFileLocked(sess, f.ID, func(sf *models.StagedFile) {
			sf.Status = models.FileStatusError
			sf.Error = msg
		})
	}
	m.checkCompletionLocked(sess)
}

func (m *Manager) markFileError(sessionID, fileID, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	m.updateFileLocked(sess, fileID, func(f *models.StagedFile) {
		f.Status = models.FileStatusError
		f.Error = msg
	})
	m.checkCompletionLocked(sess)
}

// updateFileLocked replaces the Files slice with a copy holding the
// mutated entry. Caller holds the lock.
func (m *Manager) updateFileLocked(sess *sessionState, fileID string, mutate func(*models.StagedFile)) {
	files := make([]models.StagedFile, len(sess.state.Files))
	copy(files, sess.state.Files)
	for i := range files {
		if files[i].ID == fileID {
			mutate(&files[i])
			break
		}
	}
	sess.state.Files = files
}

// setStatusLocked sets the status of every file in the set. Caller holds
// the lock.
func (m *Manager) setStatusLocked(sess *sessionState, fileIDs map[string]bool, status models.FileStatus) {
	files := make([]models.StagedFile, len(sess.state.Files))
	copy(files, sess.state.Files)
	for i := range files {
		if fileIDs[files[i].ID] {
			files[i].Status = status
		}
	}
	sess.state.Files = files
}

func copyState(s *models.WizardState) *models.WizardState {
	c := *s
	c.Files = append([]models.StagedFile(nil), s.Files...)
	c.SelectedFileIDs = append([]string(nil), s.SelectedFileIDs...)
	return &c
}

func removeString(list []string, target string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

func closeAll(readers []io.ReadCloser) {
	for _, r := range readers {
		r.Close()
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
