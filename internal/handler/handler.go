package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"faceattend/internal/attendance"
	"faceattend/internal/auth"
	"faceattend/internal/metrics"
	"faceattend/internal/model"
	"faceattend/internal/store"
)

// Handler exposes the attendance service over the /api surface.
type Handler struct {
	service *attendance.Service

	jwtIssuer   string
	jwtKey      string
	accessTTL   time.Duration
	teamMembers []string
}

// New creates a handler.
func New(service *attendance.Service, jwtIssuer, jwtKey string, accessTTL time.Duration, teamMembers []string) *Handler {
	return &Handler{
		service:     service,
		jwtIssuer:   jwtIssuer,
		jwtKey:      jwtKey,
		accessTTL:   accessTTL,
		teamMembers: teamMembers,
	}
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attendance.ErrNameAndRollRequired),
		errors.Is(err, attendance.ErrNoRegisteredFaces),
		errors.Is(err, attendance.ErrNotRecognized):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicateRollNo):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, attendance.ErrFaceService):
		c.JSON(http.StatusBadGateway, gin.H{"error": attendance.ErrFaceService.Error()})
	default:
		log.Errorf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// ---------- Admin login ----------

// Login checks credentials and issues a bearer token for the admin surface.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	if err := h.service.Authenticate(c.Request.Context(), req.Username, req.Password); err != nil {
		writeError(c, err)
		return
	}
	token, exp, err := auth.Issue(req.Username, h.jwtIssuer, h.jwtKey, h.accessTTL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"token":      token,
		"expires_at": exp.Unix(),
	})
}

// ---------- Students ----------

// ListStudents returns all registered students.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.service.Students(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if students == nil {
		students = []model.Student{}
	}
	c.JSON(http.StatusOK, students)
}

// AddStudent registers a student, optionally with a face image.
func (h *Handler) AddStudent(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RollNo    string `json:"rollNo"`
		FaceImage string `json:"faceImage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": attendance.ErrNameAndRollRequired.Error()})
		return
	}
	id, err := h.service.RegisterStudent(c.Request.Context(), req.Name, req.RollNo, req.FaceImage)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.StudentsRegistered.Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Student added", "id": id})
}

// RemoveStudent deletes a student and its attendance rows.
func (h *Handler) RemoveStudent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student id"})
		return
	}
	if err := h.service.RemoveStudent(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Student removed"})
}

// ---------- Verification ----------

// VerifyGate matches a captured frame and records a gate entry.
func (h *Handler) VerifyGate(c *gin.Context) {
	var req struct {
		FaceImage string `json:"faceImage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.FaceImage == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "face image required"})
		return
	}
	studentID, err := h.service.VerifyAndMark(c.Request.Context(), req.FaceImage, "", model.VerificationGate)
	if err != nil {
		metrics.Verifications.WithLabelValues(model.VerificationGate, "miss").Inc()
		writeError(c, err)
		return
	}
	metrics.Verifications.WithLabelValues(model.VerificationGate, "hit").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Gate verification successful", "studentId": studentID})
}

// VerifyClassroom matches a captured frame and records a classroom entry
// for the given subject.
func (h *Handler) VerifyClassroom(c *gin.Context) {
	var req struct {
		FaceImage string `json:"faceImage"`
		Subject   string `json:"subject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.FaceImage == "" || req.Subject == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "face image and subject required"})
		return
	}
	studentID, err := h.service.VerifyAndMark(c.Request.Context(), req.FaceImage, req.Subject, model.VerificationClassroom)
	if err != nil {
		metrics.Verifications.WithLabelValues(model.VerificationClassroom, "miss").Inc()
		writeError(c, err)
		return
	}
	metrics.Verifications.WithLabelValues(model.VerificationClassroom, "hit").Inc()
	c.JSON(http.StatusOK, gin.H{"message": "Classroom verification successful", "studentId": studentID})
}

// ---------- Attendance ----------

// ListAttendance returns all attendance records, most recent first.
func (h *Handler) ListAttendance(c *gin.Context) {
	records, err := h.service.Attendance(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// ExportAttendance streams the attendance log as an XML attachment.
func (h *Handler) ExportAttendance(c *gin.Context) {
	doc, err := h.service.ExportXML(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="attendance.xml"`)
	c.Data(http.StatusOK, "application/xml", doc)
}

// ---------- Team ----------

// Team reports the project team members.
func (h *Handler) Team(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"team": h.teamMembers})
}
