package service

import (
	"context"
	"excel_interview_backend/internal/model"
	"excel_interview_backend/internal/repository"
	"excel_interview_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// The production schema uses MySQL enum and json column types, so tests
// create the tables directly instead of relying on AutoMigrate.
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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A second pool connection would see an empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	for _, stmt := range testSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type stubEvaluator struct {
	conceptualScore  float64
	explanationScore float64
	reportSummary    string
}

func (s *stubEvaluator) ScoreConceptual(ctx context.Context, question, expected, answer string) (*ConceptualEvaluation, error) {
	return &ConceptualEvaluation{
		Score:     s.conceptualScore,
		Reasoning: "stub reasoning",
	}, nil
}

func (s *stubEvaluator) ScoreExplanation(ctx context.Context, question, answer string) (*ExplanationEvaluation, error) {
	return &ExplanationEvaluation{
		Clarity:      s.explanationScore,
		Accuracy:     s.explanationScore,
		Completeness: s.explanationScore,
		Overall:      s.explanationScore,
		Feedback:     "stub feedback",
	}, nil
}

func (s *stubEvaluator) FreeReply(ctx context.Context, prompt string) (string, error) {
	return "stub reply", nil
}

func (s *stubEvaluator) GenerateReport(ctx context.Context, overall float64, categories []CategorySummary) (*FinalReport, error) {
	return &FinalReport{
		Summary:         s.reportSummary,
		Strengths:       []string{"formulas"},
		Improvements:    []string{"pivot tables"},
		Recommendations: []string{"practice dashboards"},
	}, nil
}

type stubInspector struct {
	overall float64
}

func (s *stubInspector) EvaluateWorkbook(path string, expectedSheets []string, taskType TaskType) (*WorkbookEvaluation, error) {
	return &WorkbookEvaluation{
		FormulaAccuracy: s.overall,
		Structure:       s.overall,
		BestPractices:   s.overall,
		Overall:         s.overall,
		FoundFormulas:   []string{"SUMIFS(A:A,B:B,C1)"},
		Issues:          []string{},
		Recommendations: []string{},
	}, nil
}

func newTestInterviewService(t *testing.T, evaluator Evaluator, inspector Inspector) *InterviewService {
	t.Helper()
	db := newTestDB(t)
	return NewInterviewService(
		repository.NewInterviewRepository(db),
		repository.NewMessageRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewEvaluationRepository(db),
		evaluator,
		inspector,
		nil,
		db,
		nil,
	)
}

func defaultStubs() (*stubEvaluator, *stubInspector) {
	return &stubEvaluator{
		conceptualScore:  80,
		explanationScore: 70,
		reportSummary:    "Nice work.",
	}, &stubInspector{overall: 86}
}

func TestStartCreatesWelcomeState(t *testing.T) {
	evaluator, inspector := defaultStubs()
	svc := newTestInterviewService(t, evaluator, inspector)
	ctx := context.Background()

	session, err := svc.Start(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, model.SessionInProgress, session.Status)
	require.Equal(t, -1, session.CurrentQuestionIndex)
	require.Equal(t, TotalQuestions, session.TotalQuestions)

	detail, err := svc.Get(ctx, session.ID, 1)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 1)
	require.Equal(t, model.SenderAI, detail.Messages[0].Sender)
	require.Equal(t, WelcomeMessage, detail.Messages[0].Content)
	require.Equal(t, 0, detail.Progress)
	require.Empty(t, detail.Questions)
}

func TestFirstTurnAdvancesWithoutScoring(t *testing.T) {
	evaluator, inspector := defaultStubs()
	svc := newTestInterviewService(t, evaluator, inspector)
	ctx := context.Background()

	session, err := svc.Start(ctx, 1)
	require.NoError(t, err)

	result, err := svc.HandleTurn(ctx, session.ID, 1, "hello", "")
	require.NoError(t, err)
	require.Equal(t, 0, result.Session.CurrentQuestionIndex)

	// welcome, user echo, first question. No scoring happened.
	require.Len(t, result.Messages, 3)
	require.Equal(t, InterviewScript[0].Text, result.Messages[2].Content)

	detail, err := svc.Get(ctx, session.ID, 1)
	require.NoError(t, err)
	require.Empty(t, detail.Questions)
}

func TestConceptualTurnScoredAndAdvances(t *testing.T) {
	evaluator, inspector := defaultStubs()
	svc := newTestInterviewService(t, evaluator, inspector)
	ctx := context.Background()

	session, err := svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = svc.HandleTurn(ctx, session.ID, 1, "hello", "")
	require.NoError(t, err)

	result, err := svc.HandleTurn(ctx, session.ID, 1, "INDEX/MATCH can look left", "")
	require.NoError(t, err)
	require.Equal(t, 1, result.Session.CurrentQuestionIndex)

	detail, err := svc.Get(ctx, session.ID, 1)
	require.NoError(t, err)
	require.Len(t, detail.Questions, 1)
	q := detail.Questions[0]
	require.Equal(t, 0, q.QuestionIndex)
	require.Equal(t, model.CategoryConceptual, q.Category)
	require.NotNil(t, q.Score)
	require.Equal(t, 80.0, *q.Score)
	require.True(t, q.Completed)

	// Feedback banding: 80 >= 70 reads as excellent.
	feedback := detail.Messages[len(detail.Messages)-2]
	require.Contains(t, feedback.Content, "Excellent answer (80/100)")
}

// walkToIndex answers questions until the session sits at wantIdx.
func walkToIndex(t *testing.T, svc *InterviewService, sessionID string, wantIdx int) {
	t.Helper()
	ctx := context.Background()

	_, err := svc.HandleTurn(ctx, sessionID, 1, "ready", "")
	require.NoError(t, err)

	for idx := 0; idx < wantIdx; idx++ {
		file := ""
		if InterviewScript[idx].Category == model.CategoryPractical {
			file = "workbook.xlsx"
		}
		result, err := svc.HandleTurn(ctx, sessionID, 1, "an answer", file)
		require.NoError(t, err)
		require.Equal(t, idx+1, result.Session.CurrentQuestionIndex)
	}
}

func TestPracticalTurnRequiresFile(t *testing.T) {
	evaluator, inspector := defaultStubs()
	svc := newTestInterviewService(t, evaluator, inspector)
	ctx := context.Background()

	session, err := svc.Start(ctx, 1)
	require.NoError(t, err)
	walkToIndex(t, svc, session.ID, 2)

	_, err = svc.HandleTurn(ctx, session.ID, 1, "done", "")
	require.ErrorIs(t, err, util.ErrFileRequired)

	// The failed turn must leave no partial state behind.
	detail, err := svc.Get(ctx, session.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 2, detail.Session.CurrentQuestionIndex)
	require.Len(t, detail.Questions, 2)
}

func TestPracticalTurnStoresEvaluation(t *testing.T) {
	evaluator, inspector := defaultStubs()
	svc := newTestInterviewService(t, evaluator, inspector)
	ctx := context.Background()

	session, err := svc.Start(ctx, 1)
	require.NoError(t, err)
	walkToIndex(t, svc, session.ID, 2)

	result, err := svc.HandleTurn(ctx, session.ID, 1, "done", "workbook.xlsx")
	require.NoError(t, err)
	require.Equal(t, 3, result.Session.CurrentQuestionIndex)

	detail, err := svc.Get(ctx, session.ID, 1)
	require.NoError(t, err)
	q := detail.Questions[2]
	require.Equal(t, model.CategoryPractical, q.Category)
	require.Equal(t, 86.0, *q.Score)
	require.Equal(t, "workbook.xlsx", q.FilePath)

	eval, err := svc.Evaluations.FindByQuestion(q.ID)
	require.NoError(t, err)
	require.Equal(t, 86.0, eval.FormulaAccuracy)
}

func TestPracticalQuestionEmitsTemplateDownload(t *testing.T) {
	evaluator, inspector := defaultStubs()
	svc := newTestInterviewService(t, evaluator, inspector)
	ctx := context.Background()

	session, err := svc.Start(ctx, 1)
	require.NoError(t, err)
	walkToIndex(t, svc, session.ID, 2)

	detail, err := svc.Get(ctx, session.ID, 1)
	require.NoError(t, err)

	last := detail.Messages[len(detail.Messages)-1]
	require.Equal(t, model.MessageTemplateDownload, last.Type)
	require.Contains(t, string(last.Metadata), "sales_analysis")

	task := detail.Messages[len(detail.Messages)-2]
	require.Equal(t, model.MessageTask, task.Type)
	require.Equal(t, InterviewScript[2].Text, task.Content)
}

func TestCompletionComputesWeightedScore(t *testing.T) {
	evaluator, inspector := defaultStubs()
	svc := newTestInterviewService(t, evaluator, inspector)
	ctx := context.Background()

	session, err := svc.Start(ctx, 1)
	require.NoError(t, err)
	walkToIndex(t, svc, session.ID, 7)

	result, err := svc.HandleTurn(ctx, session.ID, 1, "a circular reference is...", "")
	require.NoError(t, err)

	s := result.Session
	require.Equal(t, model.SessionCompleted, s.Status)
	require.NotNil(t, s.CompletedAt)
	require.Equal(t, TotalQuestions, s.CurrentQuestionIndex)

	// conceptual 80, practical 86, explanation 70, behavioral fixed 80:
	// 86*0.5 + 80*0.25 + 70*0.15 + 80*0.1 = 81.5, rounded to 82.
	require.Equal(t, 82.0, *s.OverallScore)
	require.Equal(t, 86.0, *s.PracticalScore)
	require.Equal(t, 80.0, *s.ConceptualScore)
	require.Equal(t, 70.0, *s.ExplanationScore)
	require.Equal(t, 80.0, *s.BehavioralScore)
	require.NotEmpty(t, s.Strengths)

	final := result.Messages[len(result.Messages)-1]
	require.Contains(t, final.Content, "82/100")
	require.Contains(t, final.Content, "Nice work.")

	// A completed session rejects further turns.
	_, err = svc.HandleTurn(ctx, session.ID, 1, "hello again", "")
	require.ErrorIs(t, err, util.ErrSessionCompleted)
}

func TestBehavioralTurnFixedScore(t *testing.T) {
	evaluator, inspector := defaultStubs()
	svc := newTestInterviewService(t, evaluator, inspector)
	ctx := context.Background()

	session, err := svc.Start(ctx, 1)
	require.NoError(t, err)
	walkToIndex(t, svc, session.ID, 7)

	detail, err := svc.Get(ctx, session.ID, 1)
	require.NoError(t, err)
	q := detail.Questions[6]
	require.Equal(t, model.CategoryBehavioral, q.Category)
	require.Equal(t, 80.0, *q.Score)

	// Behavioral answers get the canned acknowledgment, no AI feedback.
	var ack bool
	for _, msg := range detail.Messages {
		if msg.Content == BehavioralAck {
			ack = true
		}
	}
	require.True(t, ack)
}

func TestAbandon(t *testing.T) {
	evaluator, inspector := defaultStubs()
	svc := newTestInterviewService(t, evaluator, inspector)
	ctx := context.Background()

	session, err := svc.Start(ctx, 1)
	require.NoError(t, err)

	abandoned, err := svc.Abandon(ctx, session.ID, 1)
	require.NoError(t, err)
	require.Equal(t, model.SessionAbandoned, abandoned.Status)

	_, err = svc.HandleTurn(ctx, session.ID, 1, "hello", "")
	require.ErrorIs(t, err, util.ErrSessionAbandoned)

	_, err = svc.Abandon(ctx, session.ID, 1)
	require.ErrorIs(t, err, util.ErrSessionCompleted)
}

func TestSessionOwnership(t *testing.T) {
	evaluator, inspector := defaultStubs()
	svc := newTestInterviewService(t, evaluator, inspector)
	ctx := context.Background()

	session, err := svc.Start(ctx, 1)
	require.NoError(t, err)

	_, err = svc.Get(ctx, session.ID, 2)
	require.ErrorIs(t, err, util.ErrSessionNotFound)

	_, err = svc.Get(ctx, "no-such-session", 1)
	require.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestAverageByCategory(t *testing.T) {
	questions := []model.InterviewQuestion{
		{Category: model.CategoryConceptual, Score: ptr(80)},
		{Category: model.CategoryConceptual, Score: ptr(60)},
		{Category: model.CategoryPractical, Score: nil}, // unscored counts as zero
	}
	averages := averageByCategory(questions)
	require.Equal(t, 70.0, averages[model.CategoryConceptual])
	require.Equal(t, 0.0, averages[model.CategoryPractical])
	// Categories with no answers average to zero rather than being skipped.
	require.Equal(t, 0.0, averages[model.CategoryExplanation])
	require.Equal(t, 0.0, averages[model.CategoryBehavioral])
}

func TestOverallScoreRounding(t *testing.T) {
	averages := map[model.QuestionCategory]float64{
		model.CategoryPractical:   90,
		model.CategoryConceptual:  70,
		model.CategoryExplanation: 50,
		model.CategoryBehavioral:  80,
	}
	// 45 + 17.5 + 7.5 + 8 = 78.
	require.Equal(t, 78.0, overallScore(averages))
}
