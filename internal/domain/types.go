package domain

import "time"

// JobStatus tracks each pipeline stage for a single processing job.
type JobStatus string

const (
	JobStatusIdle          JobStatus = "idle"
	JobStatusPreprocessing JobStatus = "preprocessing"
	JobStatusTranscribing  JobStatus = "transcribing"
	JobStatusTranslating   JobStatus = "translating"
	JobStatusExporting     JobStatus = "exporting"
	JobStatusDone          JobStatus = "done"
	JobStatusFailed        JobStatus = "failed"
	JobStatusCancelled     JobStatus = "cancelled"
)

// InputKind selects how the pipeline turns an input into text.
type InputKind string

const (
	InputKindAudio      InputKind = "audio"
	InputKindVideo      InputKind = "video"
	InputKindDocument   InputKind = "document"
	InputKindMicrophone InputKind = "microphone"
)

// InputKinds lists every supported input kind in UI order.
var InputKinds = []InputKind{
	InputKindAudio,
	InputKindVideo,
	InputKindDocument,
	InputKindMicrophone,
}

// ParseInputKind maps a user-supplied kind name to an InputKind.
func ParseInputKind(raw string) (InputKind, bool) {
	for _, kind := range InputKinds {
		if string(kind) == normalizeKey(raw) {
			return kind, true
		}
	}
	return "", false
}

// InputSpec describes one user request. It is not modified after creation.
type InputSpec struct {
	Kind                  InputKind `json:"kind"`
	Path                  string    `json:"path"`
	TranscriptionLanguage string    `json:"transcriptionLanguage"`
	TranslationLanguage   string    `json:"translationLanguage"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	OutputDir             string `json:"outputDir"`
	TranscriptionLanguage string `json:"transcriptionLanguage"`
	TranslationLanguage   string `json:"translationLanguage"`
	ChunkLengthMs         int    `json:"chunkLengthMs"`
	// FontPath overrides the configured PDF font when set.
	FontPath string `json:"fontPath,omitempty"`
}

// Job is the single active (or most recent) run.
type Job struct {
	ID         string     `json:"id"`
	Kind       InputKind  `json:"kind,omitempty"`
	Input      string     `json:"input,omitempty"`
	Status     JobStatus  `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}
