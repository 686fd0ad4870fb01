package models

import "time"

// WizardStep is the current position in the five-step upload flow.
type WizardStep int

const (
	StepProjectName WizardStep = 1
	StepUpload      WizardStep = 2
	StepSelectFiles WizardStep = 3
	StepProcessing  WizardStep = 4
	StepComplete    WizardStep = 5
)

// FileStatus is the processing state of a staged file.
type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusError      FileStatus = "error"
)

// StagedFile is a file the user has uploaded into the wizard but which has
// not yet been saved into a report. DocumentID is assigned once the file is
// submitted to the processing backend.
type StagedFile struct {
	ID         string     `json:"id"`
	StorageID  string     `json:"-"` // id in the local file store
	Name       string     `json:"name"`
	Size       int64      `json:"size"`
	UploadedAt time.Time  `json:"uploadedAt"`
	Status     FileStatus `json:"status"`
	Progress   float64    `json:"progress"` // 0-100
	Pages      int        `json:"pages,omitempty"`
	Language   string     `json:"language,omitempty"`
	DocumentID string     `json:"documentId,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// WizardState is a snapshot of one wizard session.
// Invariant: SelectedFileIDs is always a subset of the staged file ids.
type WizardState struct {
	ID              string       `json:"id"`
	CurrentStep     WizardStep   `json:"currentStep"`
	ProjectName     string       `json:"projectName"`
	Files           []StagedFile `json:"files"`
	SelectedFileIDs []string     `json:"selectedFileIds"`
	CreatedAt       time.Time    `json:"createdAt"`
}
