package entities

import (
	"testing"
	"time"
)

func TestFormatTimestampMs(t *testing.T) {
	tests := []struct {
		name string
		ms   int64
		want string
	}{
		{"zero", 0, "0:00"},
		{"sub-second rounds down", 900, "0:00"},
		{"one and a half seconds", 1500, "0:01"},
		{"four seconds", 4200, "0:04"},
		{"just under a minute", 59999, "0:59"},
		{"exactly one minute", 60000, "1:00"},
		{"minutes and seconds", 125000, "2:05"},
		{"just under an hour", 3599000, "59:59"},
		{"exactly one hour", 3600000, "1:00:00"},
		{"hour with remainder", 3723000, "1:02:03"},
		{"negative clamps to zero", -500, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestampMs(tt.ms); got != tt.want {
				t.Errorf("FormatTimestampMs(%d) = %q, want %q", tt.ms, got, tt.want)
			}
		})
	}
}

func TestSessionState_CanStartNew(t *testing.T) {
	tests := []struct {
		state SessionState
		want  bool
	}{
		{SessionStateIdle, true},
		{SessionStateComplete, true},
		{SessionStateError, true},
		{SessionStateRecording, false},
		{SessionStateTranscribing, false},
		{SessionStateEnhancing, false},
	}

	for _, tt := range tests {
		if got := tt.state.CanStartNew(); got != tt.want {
			t.Errorf("CanStartNew() from %s = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestNewRecordingSession(t *testing.T) {
	s := NewRecordingSession("en-US")

	if s.ID == "" {
		t.Error("Expected a generated session ID")
	}
	if s.State != SessionStateRecording {
		t.Errorf("Expected state %s, got %s", SessionStateRecording, s.State)
	}
	if s.Locale != "en-US" {
		t.Errorf("Expected locale en-US, got %s", s.Locale)
	}
	if s.Entries == nil || len(s.Entries) != 0 {
		t.Errorf("Expected empty entry list, got %v", s.Entries)
	}
}

func TestRecordingSession_ReplaceEntries_SortsByTimestamp(t *testing.T) {
	s := NewRecordingSession("en-US")
	s.AppendEntry(NewTranscriptEntry(0, "Contractor", "live one", 0.8))

	unsorted := []TranscriptEntry{
		NewTranscriptEntry(4000, "Homeowner", "third", 0.95),
		NewTranscriptEntry(0, "Contractor", "first", 0.95),
		NewTranscriptEntry(2000, "Homeowner", "second", 0.95),
	}
	s.ReplaceEntries(unsorted)

	if len(s.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(s.Entries))
	}
	wantOrder := []string{"first", "second", "third"}
	for i, want := range wantOrder {
		if s.Entries[i].Text != want {
			t.Errorf("entry %d = %q, want %q", i, s.Entries[i].Text, want)
		}
	}

	// The input slice must not be mutated.
	if unsorted[0].Text != "third" {
		t.Errorf("ReplaceEntries mutated its input: %q", unsorted[0].Text)
	}
}

func TestRecordingSession_ElapsedMs(t *testing.T) {
	s := NewRecordingSession("en-US")
	s.StartedAt = time.Now().Add(-3 * time.Second)

	ms := s.ElapsedMs(time.Now())
	if ms < 2900 || ms > 3500 {
		t.Errorf("ElapsedMs() = %d, want roughly 3000", ms)
	}

	if got := s.ElapsedMs(s.StartedAt.Add(-time.Second)); got != 0 {
		t.Errorf("ElapsedMs before start = %d, want 0", got)
	}
}

func TestRecordingSession_FullText(t *testing.T) {
	s := NewRecordingSession("en-US")
	s.AppendEntry(NewTranscriptEntry(0, "Contractor", "We can start Monday.", 0.8))
	s.AppendEntry(NewTranscriptEntry(2000, "Homeowner", "That works for us.", 0.8))

	want := "We can start Monday. That works for us."
	if got := s.FullText(); got != want {
		t.Errorf("FullText() = %q, want %q", got, want)
	}
}

func TestRecordingSession_BuildBundle(t *testing.T) {
	s := NewRecordingSession("en-US")
	e1 := NewTranscriptEntry(0, "Contractor", "We will replace the subfloor first.", 0.95)
	e1.AIEnhanced = true
	e2 := NewTranscriptEntry(5500, "Homeowner", "How long does that take?", 0.95)
	e2.AIEnhanced = true
	s.ReplaceEntries([]TranscriptEntry{e1, e2})
	s.Analysis = FallbackAnalysis("raw")

	bundle := s.BuildBundle()

	if bundle.SessionID != s.ID {
		t.Errorf("SessionID = %s, want %s", bundle.SessionID, s.ID)
	}
	if bundle.WordCount != 11 {
		t.Errorf("WordCount = %d, want 11", bundle.WordCount)
	}
	if bundle.SpeakerCount != 2 {
		t.Errorf("SpeakerCount = %d, want 2", bundle.SpeakerCount)
	}
	if !bundle.AIEnhanced {
		t.Error("Expected AIEnhanced bundle")
	}
	if bundle.TotalDuration != 5.5 {
		t.Errorf("TotalDuration = %f, want 5.5", bundle.TotalDuration)
	}
	if bundle.AIAnalysis == nil {
		t.Error("Expected analysis to be carried into the bundle")
	}
	if time.Since(bundle.Timestamp) > time.Second {
		t.Errorf("Bundle timestamp is not recent: %s", bundle.Timestamp)
	}
}
