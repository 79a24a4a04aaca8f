package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"excel_interview_backend/internal/config"
	"excel_interview_backend/internal/middleware"
	"excel_interview_backend/internal/model"
	"excel_interview_backend/internal/repository"
	"excel_interview_backend/internal/service"
	"excel_interview_backend/internal/util"
	"excel_interview_backend/pkg/logger"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testSchema = []string{
	`CREATE TABLE interview_sessions (
		id TEXT PRIMARY KEY, created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		user_id INTEGER, status TEXT, current_question_index INTEGER, total_questions INTEGER,
		overall_score REAL, conceptual_score REAL, practical_score REAL,
		explanation_score REAL, behavioral_score REAL,
		strengths TEXT, improvements TEXT, recommendations TEXT, completed_at DATETIME
	)`,
	`CREATE TABLE chat_messages (
		id TEXT PRIMARY KEY, created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		session_id TEXT, sender TEXT, type TEXT, content TEXT, metadata TEXT
	)`,
	`CREATE TABLE interview_questions (
		id TEXT PRIMARY KEY, created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		session_id TEXT, question_index INTEGER, category TEXT, question_text TEXT,
		user_answer TEXT, file_path TEXT, score REAL, evaluation TEXT, completed NUMERIC
	)`,
	`CREATE TABLE excel_evaluations (
		id TEXT PRIMARY KEY, created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
		question_id TEXT, formula_accuracy REAL, structure REAL, best_practices REAL, details TEXT
	)`,
}

type cannedEvaluator struct{}

func (cannedEvaluator) ScoreConceptual(ctx context.Context, question, expected, answer string) (*service.ConceptualEvaluation, error) {
	return &service.ConceptualEvaluation{Score: 75, Reasoning: "ok"}, nil
}

func (cannedEvaluator) ScoreExplanation(ctx context.Context, question, answer string) (*service.ExplanationEvaluation, error) {
	return &service.ExplanationEvaluation{Overall: 70, Feedback: "ok"}, nil
}

func (cannedEvaluator) FreeReply(ctx context.Context, prompt string) (string, error) {
	return "ok", nil
}

func (cannedEvaluator) GenerateReport(ctx context.Context, overall float64, categories []service.CategorySummary) (*service.FinalReport, error) {
	return &service.FinalReport{Summary: "done"}, nil
}

type cannedInspector struct{}

func (cannedInspector) EvaluateWorkbook(path string, expectedSheets []string, taskType service.TaskType) (*service.WorkbookEvaluation, error) {
	return &service.WorkbookEvaluation{Overall: 88, FormulaAccuracy: 88, Structure: 88, BestPractices: 88}, nil
}

type testEnv struct {
	router *gin.Engine
	svc    *service.InterviewService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	for _, stmt := range testSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}

	svc := service.NewInterviewService(
		repository.NewInterviewRepository(db),
		repository.NewMessageRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewEvaluationRepository(db),
		cannedEvaluator{},
		cannedInspector{},
		nil,
		db,
		nil,
	)

	cfg := &config.Config{}
	cfg.Upload.MaxSizeMB = 10
	cfg.Upload.TempDir = t.TempDir()

	ctrl := NewInterviewController(svc, service.NewTemplateService(cfg.Upload.TempDir), cfg)

	demoUser := &model.User{Email: "demo@interview.local", Role: model.Candidate}
	demoUser.ID = 1
	resolver := middleware.DemoIdentity(demoUser)

	router := gin.New()
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(resolver))
	{
		api.POST("/interviews/start", ctrl.Start)
		api.GET("/interviews/history", ctrl.History)
		api.GET("/interviews/:sessionId", ctrl.Get)
		api.POST("/interviews/:sessionId/message", ctrl.Message)
		api.POST("/interviews/:sessionId/upload", ctrl.Upload)
		api.GET("/interviews/:sessionId/template/:templateType", ctrl.DownloadTemplate)
		api.POST("/interviews/:sessionId/abandon", ctrl.Abandon)
	}

	return &testEnv{router: router, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) startSession(t *testing.T) string {
	t.Helper()
	session, err := e.svc.Start(context.Background(), 1)
	require.NoError(t, err)
	return session.ID
}

func TestStartEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/interviews/start", nil, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, http.StatusCreated, resp.Code)
	require.NotNil(t, resp.Data)
}

func TestUnknownSessionIs404(t *testing.T) {
	env := newTestEnv(t)

	paths := map[string]string{
		http.MethodGet:  "/api/interviews/nope",
		http.MethodPost: "/api/interviews/nope/abandon",
	}
	for method, path := range paths {
		w := env.do(t, method, path, nil, "")
		require.Equal(t, http.StatusNotFound, w.Code, "%s %s", method, path)
	}

	body := bytes.NewBufferString(`{"message":"hi"}`)
	w := env.do(t, http.MethodPost, "/api/interviews/nope/message", body, "application/json")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/interviews/nope/template/sales_analysis", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessageValidation(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	body := bytes.NewBufferString(`{}`)
	w := env.do(t, http.MethodPost, "/api/interviews/"+id+"/message", body, "application/json")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMessageTurn(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	body := bytes.NewBufferString(`{"message":"hello"}`)
	w := env.do(t, http.MethodPost, "/api/interviews/"+id+"/message", body, "application/json")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "VLOOKUP")
}

func buildUpload(t *testing.T, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="excel"; filename="workbook.xlsx"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestUploadRejectsWrongContentType(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	body, contentType := buildUpload(t, "text/plain", []byte("not a spreadsheet"))
	w := env.do(t, http.MethodPost, "/api/interviews/"+id+"/upload", body, contentType)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), util.ErrInvalidFileType.Error())
}

func TestUploadRejectsMissingFile(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("message", "no file attached"))
	require.NoError(t, mw.Close())

	w := env.do(t, http.MethodPost, "/api/interviews/"+id+"/upload", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadTurn(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	ctx := context.Background()
	// Walk to the first practical question.
	_, err := env.svc.HandleTurn(ctx, id, 1, "ready", "")
	require.NoError(t, err)
	_, err = env.svc.HandleTurn(ctx, id, 1, "answer one", "")
	require.NoError(t, err)
	_, err = env.svc.HandleTurn(ctx, id, 1, "answer two", "")
	require.NoError(t, err)

	body, contentType := buildUpload(t, util.MimeXLSX, []byte("stub workbook bytes"))
	w := env.do(t, http.MethodPost, "/api/interviews/"+id+"/upload", body, contentType)
	require.Equal(t, http.StatusOK, w.Code)

	detail, err := env.svc.Get(ctx, id, 1)
	require.NoError(t, err)
	q := detail.Questions[len(detail.Questions)-1]
	require.Equal(t, model.CategoryPractical, q.Category)
	require.Equal(t, 88.0, *q.Score)
	require.True(t, strings.HasSuffix(q.FilePath, util.UploadExtension))
}

func TestTemplateDownload(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	w := env.do(t, http.MethodGet, "/api/interviews/"+id+"/template/sales_analysis", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Disposition"), "sales_analysis_task.xlsx")
	require.NotZero(t, w.Body.Len())
}

func TestTemplateDownloadUnknownType(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	w := env.do(t, http.MethodGet, "/api/interviews/"+id+"/template/pivot_mastery", nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAbandonEndpoint(t *testing.T) {
	env := newTestEnv(t)
	id := env.startSession(t)

	w := env.do(t, http.MethodPost, "/api/interviews/"+id+"/abandon", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	// Turns after abandonment conflict.
	body := bytes.NewBufferString(`{"message":"hi"}`)
	w = env.do(t, http.MethodPost, "/api/interviews/"+id+"/message", body, "application/json")
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.startSession(t)
	env.startSession(t)

	w := env.do(t, http.MethodGet, "/api/interviews/history", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []model.InterviewSession `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
}
