package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faceattend/internal/attendance"
	"faceattend/internal/face"
	"faceattend/internal/store"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "faceattend-test"
)

type stubEncoder struct {
	vecs map[string][]float64
}

func (s stubEncoder) Encode(_ context.Context, image string) ([]float64, error) {
	return s.vecs[image], nil
}

func newTestRouter(t *testing.T, enc face.Encoder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), "admin", "password")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := attendance.NewService(st, &face.Matcher{Encoder: enc, Threshold: 0.6})
	h := New(svc, testIssuer, testKey, time.Hour, []string{"Team Hii_tech"})
	return NewRouter(h, RouterOptions{
		JWTSigningKey: testKey,
		JWTIssuer:     testIssuer,
	})
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/admin/login", "", gin.H{
		"username": "admin", "password": "password",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r := newTestRouter(t, stubEncoder{})
	w := doJSON(r, http.MethodPost, "/api/admin/login", "", gin.H{
		"username": "admin", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestGuardedEndpointsRequireToken(t *testing.T) {
	r := newTestRouter(t, stubEncoder{})
	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/students"},
		{http.MethodPost, "/api/students"},
		{http.MethodDelete, "/api/students/1"},
		{http.MethodPost, "/api/verify/gate"},
		{http.MethodPost, "/api/verify/classroom"},
		{http.MethodGet, "/api/attendance"},
		{http.MethodGet, "/api/attendance/export"},
	} {
		w := doJSON(r, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestTeamIsPublic(t *testing.T) {
	r := newTestRouter(t, stubEncoder{})
	w := doJSON(r, http.MethodGet, "/api/team", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"team":["Team Hii_tech"]}`, w.Body.String())
}

func TestGateVerificationFlow(t *testing.T) {
	enc := stubEncoder{vecs: map[string][]float64{
		"img-of-asha": {1, 0, 0},
	}}
	r := newTestRouter(t, enc)
	token := login(t, r)

	// Register Asha with her face image.
	w := doJSON(r, http.MethodPost, "/api/students", token, gin.H{
		"name": "Asha", "rollNo": "R1", "faceImage": "img-of-asha",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var added struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))
	require.Positive(t, added.ID)

	// Gate verification with the same frame matches her.
	w = doJSON(r, http.MethodPost, "/api/verify/gate", token, gin.H{
		"faceImage": "img-of-asha",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var verified struct {
		StudentID int64 `json:"studentId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verified))
	assert.Equal(t, added.ID, verified.StudentID)

	// Exactly one gate record with an empty subject.
	w = doJSON(r, http.MethodGet, "/api/attendance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []struct {
		RollNo           string `json:"rollNo"`
		Subject          string `json:"subject"`
		VerificationType string `json:"verificationType"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "R1", records[0].RollNo)
	assert.Equal(t, "gate", records[0].VerificationType)
	assert.Empty(t, records[0].Subject)
}

func TestClassroomVerificationUnknownFace(t *testing.T) {
	enc := stubEncoder{vecs: map[string][]float64{
		"img-of-asha":    {1, 0, 0},
		"img-of-unknown": {0, 0, 9},
	}}
	r := newTestRouter(t, enc)
	token := login(t, r)

	w := doJSON(r, http.MethodPost, "/api/students", token, gin.H{
		"name": "Asha", "rollNo": "R1", "faceImage": "img-of-asha",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/verify/classroom", token, gin.H{
		"faceImage": "img-of-unknown", "subject": "Math",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not recognized")

	// No attendance row was created.
	w = doJSON(r, http.MethodGet, "/api/attendance", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestVerifyValidation(t *testing.T) {
	r := newTestRouter(t, stubEncoder{})
	token := login(t, r)

	w := doJSON(r, http.MethodPost, "/api/verify/gate", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/verify/classroom", token, gin.H{
		"faceImage": "frame",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "subject")
}

func TestVerifyWithNoRegisteredFaces(t *testing.T) {
	enc := stubEncoder{vecs: map[string][]float64{"frame": {1, 2, 3}}}
	r := newTestRouter(t, enc)
	token := login(t, r)

	w := doJSON(r, http.MethodPost, "/api/verify/gate", token, gin.H{
		"faceImage": "frame",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no registered faces")
}

func TestDuplicateRollNoConflict(t *testing.T) {
	r := newTestRouter(t, stubEncoder{})
	token := login(t, r)

	w := doJSON(r, http.MethodPost, "/api/students", token, gin.H{
		"name": "Asha", "rollNo": "R1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/students", token, gin.H{
		"name": "Imposter", "rollNo": "R1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRemoveStudent(t *testing.T) {
	r := newTestRouter(t, stubEncoder{})
	token := login(t, r)

	w := doJSON(r, http.MethodPost, "/api/students", token, gin.H{
		"name": "Asha", "rollNo": "R1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var added struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &added))

	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/students/%d", added.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/students", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	// Deleting again stays a 200 no-op.
	w = doJSON(r, http.MethodDelete, fmt.Sprintf("/api/students/%d", added.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/students/not-a-number", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportAttendanceHeaders(t *testing.T) {
	enc := stubEncoder{vecs: map[string][]float64{"img": {1, 0, 0}}}
	r := newTestRouter(t, enc)
	token := login(t, r)

	w := doJSON(r, http.MethodPost, "/api/students", token, gin.H{
		"name": "Asha", "rollNo": "R1", "faceImage": "img",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodPost, "/api/verify/gate", token, gin.H{"faceImage": "img"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/attendance/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attendance.xml")
	assert.Contains(t, w.Body.String(), "<Attendance>")
	assert.Contains(t, w.Body.String(), "<RollNo>R1</RollNo>")
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, stubEncoder{})
	w := doJSON(r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
