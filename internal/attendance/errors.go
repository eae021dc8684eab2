package attendance

import "errors"

var (
	// ErrNameAndRollRequired is returned when registration misses a name or roll number.
	ErrNameAndRollRequired = errors.New("name and roll number required")
	// ErrNoRegisteredFaces is returned when verification runs with zero stored encodings.
	ErrNoRegisteredFaces = errors.New("no registered faces")
	// ErrNotRecognized is returned when no stored encoding is within the acceptance threshold.
	ErrNotRecognized = errors.New("face not recognized")
	// ErrInvalidCredentials is returned when admin login fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrFaceService is returned when the face-recognition service cannot be reached.
	ErrFaceService = errors.New("face service unavailable")
)
