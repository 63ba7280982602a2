package session

import (
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestFileSourceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	src := &FileSource{Path: path}

	// Missing file means signed out, not an error.
	s, err := src.Session()
	if err != nil {
		t.Fatalf("Session() on missing file: %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil session, got %+v", s)
	}

	want := &Session{
		AccessToken: "tok-123",
		UserID:      "user-1",
		ExpiresAt:   time.Now().Add(time.Hour).UTC(),
	}
	if err := src.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := src.Session()
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.AccessToken != want.AccessToken || got.UserID != want.UserID {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}

	if err := src.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := src.Clear(); err != nil {
		t.Fatalf("Clear on absent file should be nil, got %v", err)
	}
}

type stubSource struct {
	session *Session
	err     error
}

func (s *stubSource) Session() (*Session, error) { return s.session, s.err }

func TestGuardHasActiveSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		session *Session
		err     error
		want    bool
	}{
		{
			name:    "valid session",
			session: &Session{AccessToken: "tok", ExpiresAt: now.Add(time.Hour)},
			want:    true,
		},
		{
			name:    "no expiry means valid",
			session: &Session{AccessToken: "tok"},
			want:    true,
		},
		{
			name:    "expired session",
			session: &Session{AccessToken: "tok", ExpiresAt: now.Add(-time.Minute)},
			want:    false,
		},
		{
			name: "signed out",
			want: false,
		},
		{
			name: "lookup failure counts as no session",
			err:  io.ErrUnexpectedEOF,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGuard(&stubSource{session: tt.session, err: tt.err}, testLogger())
			g.now = func() time.Time { return now }

			if got := g.HasActiveSession(); got != tt.want {
				t.Errorf("HasActiveSession() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGuardCurrentUserID(t *testing.T) {
	g := NewGuard(&stubSource{session: &Session{AccessToken: "tok", UserID: "user-7"}}, testLogger())
	if got := g.CurrentUserID(); got != "user-7" {
		t.Errorf("CurrentUserID() = %q, want %q", got, "user-7")
	}

	g = NewGuard(&stubSource{}, testLogger())
	if got := g.CurrentUserID(); got != "" {
		t.Errorf("CurrentUserID() = %q, want empty", got)
	}
}
