package s3

import (
	"testing"
	"time"
)

func TestMultipartSessionStoreLifecycle(t *testing.T) {
	store := NewMultipartSessionStore(time.Hour)

	session := store.open("bucket", "key.bin", "upload-1")
	if session.ID == "" {
		t.Fatalf("expected a generated session ID")
	}
	if len(store.Incomplete()) != 1 {
		t.Fatalf("expected one incomplete session after open")
	}

	if err := store.recordPart(session.ID, Part{PartNumber: 1, ETag: `"etag1"`}); err != nil {
		t.Fatalf("recordPart: %v", err)
	}

	incomplete := store.Incomplete()
	if len(incomplete[0].Parts) != 1 {
		t.Errorf("expected one recorded part, got %d", len(incomplete[0].Parts))
	}

	store.close(session.ID, SessionCompleted)
	if len(store.Incomplete()) != 0 {
		t.Errorf("a closed session should not be listed as incomplete")
	}
}

func TestMultipartSessionStoreRecordPartUnknownSession(t *testing.T) {
	store := NewMultipartSessionStore(time.Hour)
	if err := store.recordPart("missing", Part{PartNumber: 1}); err != ErrMultipartSessionNotFound {
		t.Errorf("expected ErrMultipartSessionNotFound, got %v", err)
	}
}

func TestMultipartSessionStoreCleanupExpired(t *testing.T) {
	store := NewMultipartSessionStore(time.Millisecond)
	store.open("bucket", "key.bin", "upload-1")

	removed := store.CleanupExpired(time.Now().Add(time.Hour))
	if len(removed) != 1 {
		t.Errorf("expected one expired session removed, got %d", len(removed))
	}
	if len(store.Incomplete()) != 0 {
		t.Errorf("expired session should be gone")
	}
}
