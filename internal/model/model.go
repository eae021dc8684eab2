package model

// Verification types recorded with every attendance entry.
const (
	VerificationGate      = "gate"
	VerificationClassroom = "classroom"
)

// Student is the listing projection of a registered student. The stored
// face encoding is intentionally never part of this view.
type Student struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	RollNo string `json:"rollNo"`
}

// AttendanceRecord is one verified check-in, joined with the student's
// name and roll number. Subject is empty for gate entries.
type AttendanceRecord struct {
	Name             string `json:"name"`
	RollNo           string `json:"rollNo"`
	Subject          string `json:"subject"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	VerificationType string `json:"verificationType"`
}
