package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"faceattend/internal/model"
)

// ErrDuplicateRollNo is returned when a roll number is already registered.
var ErrDuplicateRollNo = errors.New("roll number already registered")

const bcryptCost = 10

// Store is the sqlite-backed persistence layer. It is the sole owner and
// mutator of the students, attendance and admins tables.
type Store struct {
	db *sql.DB

	// now is the clock used to stamp attendance rows; swapped in tests.
	now func() time.Time
}

// Open opens (creating if needed) the sqlite database at path, bootstraps
// the schema and seeds the admin credential when its username is absent.
func Open(path, adminUser, adminPass string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.seedAdmin(adminUser, adminPass); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT NOT NULL,
		roll_no       TEXT UNIQUE NOT NULL,
		face_encoding BLOB
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id        INTEGER NOT NULL,
		subject           TEXT NOT NULL DEFAULT '',
		date              TEXT NOT NULL,
		time              TEXT NOT NULL,
		verification_type TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_student ON attendance(student_id);

	CREATE TABLE IF NOT EXISTS admins (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// seedAdmin stores a bcrypt hash, never the raw password.
func (s *Store) seedAdmin(username, password string) error {
	if username == "" {
		return errors.New("admin username required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO admins (username, password_hash) VALUES (?, ?)`,
		username, string(hash),
	)
	return err
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// -------- Students --------

// AddStudent inserts a student and returns the generated id. The encoding
// may be nil when registration carried no usable face image.
func (s *Store) AddStudent(ctx context.Context, name, rollNo string, encoding []byte) (int64, error) {
	var enc any
	if len(encoding) > 0 {
		enc = encoding
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO students (name, roll_no, face_encoding) VALUES (?, ?, ?)`,
		name, rollNo, enc,
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, ErrDuplicateRollNo
		}
		return 0, err
	}
	return res.LastInsertId()
}

// RemoveStudent deletes the student row and all attendance rows referencing
// it. Removing an unknown id is a no-op.
func (s *Store) RemoveStudent(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE student_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListStudents returns all students without their encodings.
func (s *Store) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, roll_no FROM students ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.RollNo); err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	return students, rows.Err()
}

// EncodedStudent pairs a student id with its stored encoding blob.
type EncodedStudent struct {
	ID       int64
	Encoding []byte
}

// EncodedStudents returns students that have a stored face encoding,
// ordered by id ascending. Used only by verification.
func (s *Store) EncodedStudents(ctx context.Context) ([]EncodedStudent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, face_encoding FROM students WHERE face_encoding IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EncodedStudent
	for rows.Next() {
		var es EncodedStudent
		if err := rows.Scan(&es.ID, &es.Encoding); err != nil {
			return nil, err
		}
		out = append(out, es)
	}
	return out, rows.Err()
}

// -------- Attendance --------

// MarkAttendance inserts one attendance row stamped with the current
// server-local date (YYYY-MM-DD) and time (HH:MM:SS).
func (s *Store) MarkAttendance(ctx context.Context, studentID int64, subject, verificationType string) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attendance (student_id, subject, date, time, verification_type) VALUES (?, ?, ?, ?, ?)`,
		studentID, subject, now.Format("2006-01-02"), now.Format("15:04:05"), verificationType,
	)
	return err
}

// ListAttendance returns all attendance rows joined with student identity,
// most recent first.
func (s *Store) ListAttendance(ctx context.Context) ([]model.AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.name, s.roll_no, a.subject, a.date, a.time, a.verification_type
		FROM attendance a
		JOIN students s ON s.id = a.student_id
		ORDER BY a.date DESC, a.time DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		var r model.AttendanceRecord
		if err := rows.Scan(&r.Name, &r.RollNo, &r.Subject, &r.Date, &r.Time, &r.VerificationType); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// -------- Admins --------

// AdminHash returns the stored bcrypt hash for username, or sql.ErrNoRows.
func (s *Store) AdminHash(ctx context.Context, username string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM admins WHERE username = ?`, username,
	).Scan(&hash)
	return hash, err
}
