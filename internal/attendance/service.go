package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"faceattend/internal/face"
	"faceattend/internal/model"
	"faceattend/internal/store"
)

// Service implements the attendance business logic over the persistence
// layer and the face-matching adapter.
type Service struct {
	store   *store.Store
	matcher *face.Matcher
}

// NewService creates a service backed by a store and a matcher.
func NewService(st *store.Store, matcher *face.Matcher) *Service {
	return &Service{store: st, matcher: matcher}
}

// RegisterStudent validates and registers a student. When a face image is
// supplied it is encoded first; an image in which the model finds no face
// is registered with no stored encoding, matching the reference behavior.
func (s *Service) RegisterStudent(ctx context.Context, name, rollNo, faceImage string) (int64, error) {
	if name == "" || rollNo == "" {
		return 0, ErrNameAndRollRequired
	}

	var blob []byte
	if faceImage != "" {
		vec, err := s.matcher.Encoder.Encode(ctx, faceImage)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrFaceService, err)
		}
		if vec != nil {
			blob = face.MarshalEncoding(vec)
		}
	}

	return s.store.AddStudent(ctx, name, rollNo, blob)
}

// RemoveStudent removes a student and its attendance rows. Unknown ids are
// a no-op, so removal always succeeds from the caller's perspective.
func (s *Service) RemoveStudent(ctx context.Context, id int64) error {
	return s.store.RemoveStudent(ctx, id)
}

// Students lists registered students without encodings.
func (s *Service) Students(ctx context.Context) ([]model.Student, error) {
	return s.store.ListStudents(ctx)
}

// VerifyAndMark matches the captured image against all stored encodings
// and, on a hit, records an attendance row for the matched student. The
// subject must be empty for gate verifications.
func (s *Service) VerifyAndMark(ctx context.Context, image, subject, verificationType string) (int64, error) {
	encoded, err := s.store.EncodedStudents(ctx)
	if err != nil {
		return 0, err
	}

	known := make([][]float64, 0, len(encoded))
	ids := make([]int64, 0, len(encoded))
	for _, es := range encoded {
		vec, err := face.UnmarshalEncoding(es.Encoding)
		if err != nil {
			return 0, fmt.Errorf("student %d: %w", es.ID, err)
		}
		known = append(known, vec)
		ids = append(ids, es.ID)
	}
	if len(known) == 0 {
		return 0, ErrNoRegisteredFaces
	}

	idx, ok, err := s.matcher.Recognize(ctx, image, known)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFaceService, err)
	}
	if !ok {
		return 0, ErrNotRecognized
	}

	studentID := ids[idx]
	if err := s.store.MarkAttendance(ctx, studentID, subject, verificationType); err != nil {
		return 0, err
	}
	return studentID, nil
}

// Attendance lists recorded attendance, most recent first.
func (s *Service) Attendance(ctx context.Context) ([]model.AttendanceRecord, error) {
	return s.store.ListAttendance(ctx)
}

// Authenticate checks admin credentials against the stored bcrypt hash.
func (s *Service) Authenticate(ctx context.Context, username, password string) error {
	hash, err := s.store.AdminHash(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidCredentials
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}
