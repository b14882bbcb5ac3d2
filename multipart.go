package s3

import (
	"context"
	"io"
)

// multipartState names the streamer's lifecycle stage (spec.md §4.H).
type multipartState int

const (
	stateIdle multipartState = iota
	stateInitiated
	stateUploading
	stateCompleting
	stateDone
	stateAborting
	stateAborted
)

// multipartStreamer drives chunked uploads over an io.Reader, with the
// small-file bypass and abort-on-cancellation semantics spec.md §4.H
// requires. It is constructed fresh for each PutObjectStream* call.
type multipartStreamer struct {
	bucket      *Bucket
	path        string
	contentType string
	headers     map[string]string

	state     multipartState
	uploadID  string
	parts     []Part
	sessionID string
}

// run executes the full state machine and returns the terminal HTTP
// status (the single PutObject's status on the small-file bypass, or
// CompleteMultipartUpload's status otherwise). spec.md §4.H always
// initiates the multipart upload before inspecting the first chunk's
// size, then aborts it if the input turns out to fit in one chunk
// (test scenario S5): exactly one Initiate, one Abort, one PutObject.
func (s *multipartStreamer) run(ctx context.Context, reader io.Reader) (int, error) {
	first := make([]byte, ChunkSize)
	n, readErr := io.ReadFull(reader, first)
	if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
		return 0, readErr
	}
	chunk := first[:n]

	if n == 0 {
		return 0, ErrEmptyReader
	}

	if err := s.initiate(ctx); err != nil {
		return 0, err
	}

	// Fewer than one full chunk: this is the only chunk. Abort the
	// upload just initiated and fall back to a single PutObject.
	if int64(n) < ChunkSize {
		s.abortBestEffort(ctx)
		resp, err := s.bucket.do(ctx, s.path, PutObjectCommand{
			Content:       chunk,
			ContentTypeV:  s.contentType,
			CustomHeaders: s.headers,
		})
		if err != nil {
			return 0, err
		}
		return resp.StatusCode, nil
	}

	for {
		next := make([]byte, ChunkSize)
		nn, nextErr := io.ReadFull(reader, next)
		if nextErr != nil && nextErr != io.ErrUnexpectedEOF && nextErr != io.EOF {
			s.abortBestEffort(ctx)
			return 0, nextErr
		}

		if err := s.uploadPart(ctx, chunk); err != nil {
			s.abortBestEffort(ctx)
			return 0, err
		}

		if int64(nn) < ChunkSize {
			if nn > 0 {
				if err := s.uploadPart(ctx, next[:nn]); err != nil {
					s.abortBestEffort(ctx)
					return 0, err
				}
			}
			return s.complete(ctx)
		}

		chunk = next[:nn]
	}
}

func (s *multipartStreamer) initiate(ctx context.Context) error {
	s.state = stateInitiated
	result, _, err := s.bucket.initiateMultipartUpload(ctx, s.path, s.contentType, s.headers)
	if err != nil {
		return err
	}
	s.uploadID = result.UploadID
	s.state = stateUploading
	if s.bucket.Sessions != nil {
		s.sessionID = s.bucket.Sessions.open(s.bucket.Name, s.path, s.uploadID).ID
	}
	return nil
}

func (s *multipartStreamer) uploadPart(ctx context.Context, content []byte) error {
	partNumber := len(s.parts) + 1
	etag, _, err := s.bucket.uploadPart(ctx, s.path, partNumber, content, s.uploadID)
	if err != nil {
		return err
	}
	part := Part{PartNumber: partNumber, ETag: etag}
	s.parts = append(s.parts, part)
	if s.bucket.Sessions != nil && s.sessionID != "" {
		if err := s.bucket.Sessions.recordPart(s.sessionID, part); err != nil {
			s.bucket.log().Debug("record multipart session part failed: %v", err)
		}
	}
	return nil
}

func (s *multipartStreamer) complete(ctx context.Context) (int, error) {
	s.state = stateCompleting
	_, status, err := s.bucket.completeMultipartUpload(ctx, s.path, s.uploadID, s.parts)
	if err != nil {
		return 0, err
	}
	s.state = stateDone
	s.closeSession(SessionCompleted)
	return status, nil
}

// abortBestEffort issues AbortMultipartUpload when the reader fails or
// an UploadPart call fails mid-stream. Its own failure is logged, not
// surfaced, per spec.md §5 "Cancellation".
func (s *multipartStreamer) abortBestEffort(ctx context.Context) {
	s.state = stateAborting
	if _, err := s.bucket.abortMultipartUpload(ctx, s.path, s.uploadID); err != nil {
		s.bucket.log().Error("abort multipart upload failed", "upload_id", s.uploadID, "error", err)
		return
	}
	s.state = stateAborted
	s.closeSession(SessionAborted)
}

func (s *multipartStreamer) closeSession(state MultipartSessionState) {
	if s.bucket.Sessions != nil && s.sessionID != "" {
		s.bucket.Sessions.close(s.sessionID, state)
	}
}

// AbortMultipartUpload exposes the façade operation directly, for
// callers that track their own upload IDs outside PutObjectStream.
func (b *Bucket) AbortMultipartUpload(ctx context.Context, path, uploadID string) (int, error) {
	return b.abortMultipartUpload(ctx, path, uploadID)
}

// InitiateMultipartUpload exposes the raw operation for callers that
// want to drive parts themselves instead of using PutObjectStream.
func (b *Bucket) InitiateMultipartUpload(ctx context.Context, path, contentType string) (*InitiateMultipartUploadResult, int, error) {
	return b.initiateMultipartUpload(ctx, path, contentType, nil)
}

// UploadPart exposes the raw per-part PUT.
func (b *Bucket) UploadPart(ctx context.Context, path string, partNumber int, content []byte, uploadID string) (string, int, error) {
	return b.uploadPart(ctx, path, partNumber, content, uploadID)
}

// CompleteMultipartUpload exposes the raw finalisation call.
func (b *Bucket) CompleteMultipartUpload(ctx context.Context, path, uploadID string, parts []Part) ([]byte, int, error) {
	return b.completeMultipartUpload(ctx, path, uploadID, parts)
}
