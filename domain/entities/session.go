package entities

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SessionState represents the lifecycle state of a recording session
type SessionState string

const (
	SessionStateIdle         SessionState = "idle"
	SessionStateRecording    SessionState = "recording"
	SessionStateTranscribing SessionState = "transcribing"
	SessionStateEnhancing    SessionState = "enhancing"
	SessionStateComplete     SessionState = "complete"
	SessionStateError        SessionState = "error"
)

// CanStartNew reports whether a new session may begin while a session
// is in this state. Recording and the post-stop processing states hold
// the session exclusively.
func (s SessionState) CanStartNew() bool {
	return s == SessionStateIdle || s == SessionStateComplete || s == SessionStateError
}

// TranscriptEntry is one speaker-attributed, timestamped unit of
// transcribed speech. The speaker label is a heuristic guess, never a
// verified identity.
type TranscriptEntry struct {
	ID          string  `json:"id"`
	TimestampMs int64   `json:"timestampMs"`
	Speaker     string  `json:"speaker"`
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
	AIEnhanced  bool    `json:"aiEnhanced"`
	SpeakerRole string  `json:"speakerRole,omitempty"`
}

// NewTranscriptEntry creates an entry with a fresh ID.
func NewTranscriptEntry(timestampMs int64, speaker, text string, confidence float64) TranscriptEntry {
	return TranscriptEntry{
		ID:          uuid.NewString(),
		TimestampMs: timestampMs,
		Speaker:     speaker,
		Text:        text,
		Confidence:  confidence,
	}
}

// RecordingSession is one recording-to-scope lifecycle instance.
// At most one session is active system-wide; the SessionController
// owns it exclusively.
type RecordingSession struct {
	ID        string            `json:"sessionId"`
	StartedAt time.Time         `json:"startedAt"`
	State     SessionState      `json:"state"`
	Entries   []TranscriptEntry `json:"entries"`
	Analysis  *AIAnalysis       `json:"aiAnalysis,omitempty"`
	AudioRef  string            `json:"audioRef,omitempty"`
	Locale    string            `json:"locale,omitempty"`
}

// NewRecordingSession creates a session in the Recording state.
func NewRecordingSession(locale string) *RecordingSession {
	return &RecordingSession{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		State:     SessionStateRecording,
		Entries:   make([]TranscriptEntry, 0),
		Locale:    locale,
	}
}

// AppendEntry appends a live entry. Live capture is append-only.
func (s *RecordingSession) AppendEntry(entry TranscriptEntry) {
	s.Entries = append(s.Entries, entry)
}

// ReplaceEntries swaps the full entry list for the enhanced one. The
// slice header is replaced in a single assignment so readers holding
// the previous slice still see a consistent list; live entries are
// never merged piecemeal into the enhanced ones. The replacement is
// sorted by timestamp.
func (s *RecordingSession) ReplaceEntries(entries []TranscriptEntry) {
	sorted := make([]TranscriptEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampMs < sorted[j].TimestampMs
	})
	s.Entries = sorted
}

// ElapsedMs returns the offset of a wall-clock instant relative to
// session start, clamped at zero.
func (s *RecordingSession) ElapsedMs(at time.Time) int64 {
	ms := at.Sub(s.StartedAt).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// FullText joins all entry texts in timestamp order.
func (s *RecordingSession) FullText() string {
	parts := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		parts = append(parts, e.Text)
	}
	return strings.Join(parts, " ")
}

// TranscriptBundle is the persisted form of a finished session.
type TranscriptBundle struct {
	SessionID     string            `json:"sessionId"`
	Timestamp     time.Time         `json:"timestamp"`
	Entries       []TranscriptEntry `json:"entries"`
	AIAnalysis    *AIAnalysis       `json:"aiAnalysis,omitempty"`
	TotalDuration float64           `json:"totalDuration"`
	WordCount     int               `json:"wordCount"`
	AIEnhanced    bool              `json:"aiEnhanced"`
	SpeakerCount  int               `json:"speakerCount"`
}

// BuildBundle assembles the persistable bundle from the session's
// current entries and analysis.
func (s *RecordingSession) BuildBundle() TranscriptBundle {
	wordCount := 0
	speakers := make(map[string]struct{})
	enhanced := false
	var lastMs int64
	for _, e := range s.Entries {
		wordCount += len(strings.Fields(e.Text))
		speakers[e.Speaker] = struct{}{}
		if e.AIEnhanced {
			enhanced = true
		}
		if e.TimestampMs > lastMs {
			lastMs = e.TimestampMs
		}
	}
	return TranscriptBundle{
		SessionID:     s.ID,
		Timestamp:     time.Now(),
		Entries:       s.Entries,
		AIAnalysis:    s.Analysis,
		TotalDuration: float64(lastMs) / 1000.0,
		WordCount:     wordCount,
		AIEnhanced:    enhanced,
		SpeakerCount:  len(speakers),
	}
}

// FormatTimestampMs renders a session-relative offset as m:ss, or
// h:mm:ss once the offset reaches one hour.
func FormatTimestampMs(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	seconds := totalSeconds % 60
	minutes := (totalSeconds / 60) % 60
	hours := totalSeconds / 3600
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
