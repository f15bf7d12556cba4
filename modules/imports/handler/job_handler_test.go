package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contactmodel "github.com/andreypavlenko/crmcore/modules/contacts/model"
	"github.com/andreypavlenko/crmcore/modules/imports/model"
	"github.com/andreypavlenko/crmcore/modules/imports/ports"
	"github.com/andreypavlenko/crmcore/modules/imports/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobRepo struct {
	jobs map[string]*model.Job
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*model.Job)}
}

func (r *fakeJobRepo) Create(ctx context.Context, job *model.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	r.jobs[job.ID] = job
	return nil
}
func (r *fakeJobRepo) GetByID(ctx context.Context, jobID string) (*model.Job, error) {
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, model.ErrJobNotFound
	}
	return job, nil
}
func (r *fakeJobRepo) Update(ctx context.Context, job *model.Job) error {
	r.jobs[job.ID] = job
	return nil
}
func (r *fakeJobRepo) ClaimNext(ctx context.Context, workerID string) (*model.Job, error) {
	return nil, nil
}
func (r *fakeJobRepo) Heartbeat(ctx context.Context, jobID string, progress model.Progress) error {
	return nil
}
func (r *fakeJobRepo) ListOrphaned(ctx context.Context, olderThan time.Time) ([]*model.Job, error) {
	return nil, nil
}
func (r *fakeJobRepo) ListByProfile(ctx context.Context, profile string, limit int) ([]*model.Job, error) {
	return nil, nil
}

type fakeAuditRepo struct {
	conflicts []*contactmodel.ConflictRow
}

func (r *fakeAuditRepo) SaveConflicts(ctx context.Context, rows []*contactmodel.ConflictRow) error {
	return nil
}
func (r *fakeAuditRepo) SaveInvalidRows(ctx context.Context, rows []*contactmodel.InvalidRow) error {
	return nil
}
func (r *fakeAuditRepo) SaveParseFailures(ctx context.Context, rows []*contactmodel.ParseFailure) error {
	return nil
}
func (r *fakeAuditRepo) ListConflicts(ctx context.Context, jobID string) ([]*contactmodel.ConflictRow, error) {
	return r.conflicts, nil
}
func (r *fakeAuditRepo) ListInvalidRows(ctx context.Context, jobID string) ([]*contactmodel.InvalidRow, error) {
	return nil, nil
}
func (r *fakeAuditRepo) ListParseFailures(ctx context.Context, jobID string) ([]*contactmodel.ParseFailure, error) {
	return nil, nil
}
func (r *fakeAuditRepo) ReapExpired(ctx context.Context, olderThan time.Time) (int, error) {
	return 0, nil
}

type fakeFileStore struct {
	objects map[string][]byte
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{objects: make(map[string][]byte)}
}
func (f *fakeFileStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	f.objects[key] = body
	return nil
}
func (f *fakeFileStore) Open(ctx context.Context, key string) (ports.ReadCloser, error) {
	return &fakeReadCloser{data: f.objects[key]}, nil
}
func (f *fakeFileStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

type fakeReadCloser struct {
	data []byte
	pos  int
}

func (r *fakeReadCloser) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
func (r *fakeReadCloser) Close() error { return nil }

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func mockAuthMiddleware(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func newTestHandler() (*JobHandler, *fakeJobRepo, *fakeAuditRepo, *fakeFileStore) {
	jobs := newFakeJobRepo()
	audit := &fakeAuditRepo{}
	files := newFakeFileStore()
	svc := service.NewJobService(jobs, audit, files)
	return NewJobHandler(svc), jobs, audit, files
}

func multipartUploadBody(t *testing.T, profile, weekStart, filename, content string) (*bytes.Buffer, string) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("profile", profile))
	require.NoError(t, w.WriteField("week_start", weekStart))
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestJobHandler_Upload(t *testing.T) {
	handler, _, _, _ := newTestHandler()
	router := setupRouter()
	router.POST("/imports", mockAuthMiddleware("user-1"), handler.Upload)

	body, contentType := multipartUploadBody(t, "GB", "2026-07-27", "export.csv", "Email,Name\na@b.com,Alice\n")
	req, _ := http.NewRequest(http.MethodPost, "/imports", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestJobHandler_Progress_NotFound(t *testing.T) {
	handler, _, _, _ := newTestHandler()
	router := setupRouter()
	router.GET("/imports/:id/progress", mockAuthMiddleware("user-1"), handler.Progress)

	req, _ := http.NewRequest(http.MethodGet, "/imports/missing/progress", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobHandler_Cancel(t *testing.T) {
	handler, jobs, _, _ := newTestHandler()
	jobs.jobs["job-1"] = &model.Job{ID: "job-1", Status: model.StatusUploaded}

	router := setupRouter()
	router.POST("/imports/:id/cancel", mockAuthMiddleware("user-1"), handler.Cancel)

	req, _ := http.NewRequest(http.MethodPost, "/imports/job-1/cancel", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, model.StatusCancelled, jobs.jobs["job-1"].Status)
}

func TestJobHandler_RegisterRoutes(t *testing.T) {
	handler, jobs, _, _ := newTestHandler()
	jobs.jobs["job-1"] = &model.Job{ID: "job-1", Status: model.StatusUploaded}

	router := setupRouter()
	v1 := router.Group("/api/v1")
	handler.RegisterRoutes(v1, mockAuthMiddleware("user-1"))

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/imports/job-1/progress", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
