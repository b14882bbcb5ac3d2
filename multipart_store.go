package s3

import (
	"sort"
	"sync"
	"time"

	gerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// MultipartSessionState mirrors multipartState but is the subset a
// caller outside this package is meant to observe.
type MultipartSessionState string

const (
	SessionActive    MultipartSessionState = "active"
	SessionCompleted MultipartSessionState = "completed"
	SessionAborted   MultipartSessionState = "aborted"
)

// MultipartSession is a snapshot of one multipart upload in flight:
// enough to resume (re-derive Part numbers/ETags) or abort an upload
// left incomplete by a crashed process, matching ErrMultipartIncomplete.
type MultipartSession struct {
	ID        string
	Bucket    string
	Path      string
	UploadID  string
	CreatedAt time.Time
	ExpiresAt time.Time
	State     MultipartSessionState
	Parts     map[int]Part
}

// MultipartSessionStore is an in-memory, RWMutex-guarded registry of
// in-flight multipart uploads (spec.md §5 "Cancellation" / §9
// ErrMultipartIncomplete). PutObjectStream registers a session on
// Initiate and clears it on Complete/Abort; a session left behind after
// a crash is visible via Bucket.IncompleteUploads for manual cleanup.
type MultipartSessionStore struct {
	mu        sync.RWMutex
	ttl       time.Duration
	sessions  map[string]*MultipartSession
	timeNowFn func() time.Time
}

// NewMultipartSessionStore builds a store whose sessions expire after
// ttl (DefaultMultipartSessionTTL if ttl <= 0).
func NewMultipartSessionStore(ttl time.Duration) *MultipartSessionStore {
	if ttl <= 0 {
		ttl = DefaultMultipartSessionTTL
	}
	return &MultipartSessionStore{
		ttl:       ttl,
		sessions:  make(map[string]*MultipartSession),
		timeNowFn: time.Now,
	}
}

func (s *MultipartSessionStore) timeNow() time.Time {
	if s.timeNowFn != nil {
		return s.timeNowFn()
	}
	return time.Now()
}

// open registers a new session for an upload that was just initiated.
func (s *MultipartSessionStore) open(bucket, path, uploadID string) *MultipartSession {
	now := s.timeNow()
	session := &MultipartSession{
		ID:        uuid.NewString(),
		Bucket:    bucket,
		Path:      path,
		UploadID:  uploadID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		State:     SessionActive,
		Parts:     make(map[int]Part),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return cloneMultipartSession(session)
}

// recordPart appends an uploaded part's ETag to the session named id.
func (s *MultipartSessionStore) recordPart(id string, part Part) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrMultipartSessionNotFound
	}
	if session.State != SessionActive {
		return ErrMultipartSessionClosed
	}
	session.Parts[part.PartNumber] = part
	return nil
}

// close marks a session completed or aborted and removes it, since a
// finished session carries no more information a caller needs. state
// is accepted for call-site clarity even though both outcomes just
// delete the entry today.
func (s *MultipartSessionStore) close(id string, state MultipartSessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Incomplete returns every session still active, oldest first, for a
// caller to reconcile against ListMultipartUploads and decide whether
// to resume or abort each one.
func (s *MultipartSessionStore) Incomplete() []*MultipartSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*MultipartSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, cloneMultipartSession(session))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// CleanupExpired removes sessions whose TTL has elapsed and returns
// their IDs, mirroring the expiry sweep a long-running process would
// schedule periodically.
func (s *MultipartSessionStore) CleanupExpired(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string
	for id, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func cloneMultipartSession(in *MultipartSession) *MultipartSession {
	out := *in
	out.Parts = make(map[int]Part, len(in.Parts))
	for k, v := range in.Parts {
		out.Parts[k] = v
	}
	return &out
}

var (
	// ErrMultipartSessionNotFound is returned by MultipartSessionStore
	// methods addressing a session ID that doesn't exist or expired.
	ErrMultipartSessionNotFound = gerrors.New("multipart session not found", gerrors.CategoryNotFound).
					WithCode(404).
					WithTextCode("MULTIPART_SESSION_NOT_FOUND")

	// ErrMultipartSessionClosed is returned when a part is recorded
	// against a session that already completed or aborted.
	ErrMultipartSessionClosed = gerrors.New("multipart session already closed", gerrors.CategoryConflict).
					WithCode(409).
					WithTextCode("MULTIPART_SESSION_CLOSED")
)
