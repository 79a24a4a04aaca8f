package service

import (
	"context"
	"encoding/json"
	"excel_interview_backend/internal/model"
	"excel_interview_backend/internal/repository"
	"excel_interview_backend/internal/util"
	"excel_interview_backend/pkg/logger"
	"excel_interview_backend/pkg/monitoring"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// turnLockTTL bounds how long a crashed request can hold a session's turn lock.
const turnLockTTL = 30 * time.Second

// InterviewService owns the fixed question script and the session state
// machine, and orchestrates the evaluator, the spreadsheet inspector and
// the persistence gateway per user turn.
type InterviewService struct {
	Sessions    *repository.InterviewRepository
	Messages    *repository.MessageRepository
	Questions   *repository.QuestionRepository
	Evaluations *repository.EvaluationRepository
	Evaluator   Evaluator
	Inspector   Inspector
	Storage     *StorageService
	DB          *gorm.DB
	RDB         *redis.Client
}

func NewInterviewService(
	sessions *repository.InterviewRepository,
	messages *repository.MessageRepository,
	questions *repository.QuestionRepository,
	evaluations *repository.EvaluationRepository,
	evaluator Evaluator,
	inspector Inspector,
	storage *StorageService,
	db *gorm.DB,
	rdb *redis.Client,
) *InterviewService {
	return &InterviewService{
		Sessions:    sessions,
		Messages:    messages,
		Questions:   questions,
		Evaluations: evaluations,
		Evaluator:   evaluator,
		Inspector:   inspector,
		Storage:     storage,
		DB:          db,
		RDB:         rdb,
	}
}

// SessionDetail is the GET payload: session plus transcript and answers.
type SessionDetail struct {
	Session   *model.InterviewSession   `json:"session"`
	Messages  []model.ChatMessage       `json:"messages"`
	Questions []model.InterviewQuestion `json:"questions"`
	Progress  int                       `json:"progress"`
}

// TurnResult is returned after every message/upload turn.
type TurnResult struct {
	Session  *model.InterviewSession `json:"session"`
	Messages []model.ChatMessage     `json:"messages"`
}

// Start creates a session at index -1 with a single welcome message.
func (s *InterviewService) Start(ctx context.Context, userID uint) (*model.InterviewSession, error) {
	session := &model.InterviewSession{
		UserID:               userID,
		Status:               model.SessionInProgress,
		CurrentQuestionIndex: -1,
		TotalQuestions:       TotalQuestions,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Sessions.WithTx(tx).Create(session); err != nil {
			return err
		}
		welcome := &model.ChatMessage{
			SessionID: session.ID,
			Sender:    model.SenderAI,
			Type:      model.MessageText,
			Content:   WelcomeMessage,
		}
		return s.Messages.WithTx(tx).Create(welcome)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the session, transcript, answered questions and progress.
func (s *InterviewService) Get(ctx context.Context, sessionID string, userID uint) (*SessionDetail, error) {
	session, err := s.findSession(sessionID, userID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.Messages.ListBySession(session.ID)
	if err != nil {
		return nil, err
	}
	questions, err := s.Questions.ListBySession(session.ID)
	if err != nil {
		return nil, err
	}

	return &SessionDetail{
		Session:   session,
		Messages:  msgs,
		Questions: questions,
		Progress:  session.Progress(),
	}, nil
}

// History lists the caller's sessions, newest first.
func (s *InterviewService) History(ctx context.Context, userID uint) ([]model.InterviewSession, error) {
	return s.Sessions.ListByUser(userID)
}

// Abandon marks an in-progress session abandoned.
func (s *InterviewService) Abandon(ctx context.Context, sessionID string, userID uint) (*model.InterviewSession, error) {
	session, err := s.findSession(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionInProgress {
		return nil, util.ErrSessionCompleted
	}
	session.Status = model.SessionAbandoned
	if err := s.Sessions.Update(session); err != nil {
		return nil, err
	}
	return session, nil
}

// HandleTurn processes one user turn: log the user message, score the
// current answer (unless the session has not started yet), advance the
// index, and emit the next question or the final report. All writes for the
// turn happen in one transaction; external calls (AI, workbook parse) run
// before it so a failure leaves no partial turn behind.
func (s *InterviewService) HandleTurn(ctx context.Context, sessionID string, userID uint, userText, filePath string) (*TurnResult, error) {
	session, err := s.findSession(sessionID, userID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case model.SessionCompleted:
		return nil, util.ErrSessionCompleted
	case model.SessionAbandoned:
		return nil, util.ErrSessionAbandoned
	}

	if unlock, err := s.acquireTurnLock(ctx, session.ID); err != nil {
		return nil, err
	} else if unlock != nil {
		defer unlock()
	}

	userMsg := &model.ChatMessage{
		SessionID: session.ID,
		Sender:    model.SenderUser,
		Type:      model.MessageText,
		Content:   userText,
	}
	if filePath != "" {
		userMsg.Type = model.MessageFileUpload
		userMsg.Metadata = mustJSON(map[string]interface{}{"filePath": filePath})
	}

	// First turn only wakes the session up: -1 -> 0, no scoring.
	if session.CurrentQuestionIndex == -1 {
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.Messages.WithTx(tx).Create(userMsg); err != nil {
				return err
			}
			session.CurrentQuestionIndex = 0
			if err := s.Sessions.WithTx(tx).Update(session); err != nil {
				return err
			}
			return s.appendQuestionMessages(tx, session, 0)
		})
		if err != nil {
			return nil, err
		}
		return s.turnResult(session)
	}

	idx := session.CurrentQuestionIndex
	tmpl := InterviewScript[idx]

	// External scoring happens before any write.
	outcome, err := s.scoreAnswer(ctx, session, tmpl, idx, userText, filePath)
	if err != nil {
		monitoring.EvaluationCounter.WithLabelValues(string(tmpl.Category), "error").Inc()
		return nil, err
	}
	monitoring.EvaluationCounter.WithLabelValues(string(tmpl.Category), "ok").Inc()

	next := idx + 1
	completing := next >= session.TotalQuestions

	var report *FinalReport
	var finalScore float64
	var averages map[model.QuestionCategory]float64
	if completing {
		existing, err := s.Questions.ListBySession(session.ID)
		if err != nil {
			return nil, err
		}
		all := append(existing, *outcome.question)
		averages = averageByCategory(all)
		finalScore = overallScore(averages)

		report, err = s.Evaluator.GenerateReport(ctx, finalScore, categorySummaries(all, averages))
		if err != nil {
			return nil, err
		}
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.Messages.WithTx(tx).Create(userMsg); err != nil {
			return err
		}
		if err := s.Questions.WithTx(tx).Create(outcome.question); err != nil {
			return err
		}
		if outcome.excelEval != nil {
			outcome.excelEval.QuestionID = outcome.question.ID
			if err := s.Evaluations.WithTx(tx).Create(outcome.excelEval); err != nil {
				return err
			}
		}

		feedback := &model.ChatMessage{
			SessionID: session.ID,
			Sender:    model.SenderAI,
			Type:      model.MessageText,
			Content:   outcome.feedback,
		}
		if err := s.Messages.WithTx(tx).Create(feedback); err != nil {
			return err
		}

		session.CurrentQuestionIndex = next
		if completing {
			now := time.Now()
			session.Status = model.SessionCompleted
			session.CompletedAt = &now
			session.OverallScore = ptr(finalScore)
			session.PracticalScore = ptr(averages[model.CategoryPractical])
			session.ConceptualScore = ptr(averages[model.CategoryConceptual])
			session.ExplanationScore = ptr(averages[model.CategoryExplanation])
			session.BehavioralScore = ptr(averages[model.CategoryBehavioral])
			session.Strengths = mustJSON(report.Strengths)
			session.Improvements = mustJSON(report.Improvements)
			session.Recommendations = mustJSON(report.Recommendations)
		}
		if err := s.Sessions.WithTx(tx).Update(session); err != nil {
			return err
		}

		if completing {
			final := &model.ChatMessage{
				SessionID: session.ID,
				Sender:    model.SenderAI,
				Type:      model.MessageText,
				Content: fmt.Sprintf("That was the last question — the interview is complete! "+
					"Your overall score: %.0f/100.\n\n%s", finalScore, report.Summary),
				Metadata: mustJSON(map[string]interface{}{"finalScore": finalScore}),
			}
			return s.Messages.WithTx(tx).Create(final)
		}
		return s.appendQuestionMessages(tx, session, next)
	})
	if err != nil {
		return nil, err
	}

	s.archiveWorkbook(ctx, session, outcome.question)

	return s.turnResult(session)
}

// turnOutcome carries one scored answer from dispatch to persistence.
type turnOutcome struct {
	question  *model.InterviewQuestion
	excelEval *model.ExcelEvaluation
	feedback  string
}

func (s *InterviewService) scoreAnswer(ctx context.Context, session *model.InterviewSession, tmpl QuestionTemplate, idx int, userText, filePath string) (*turnOutcome, error) {
	question := &model.InterviewQuestion{
		SessionID:     session.ID,
		QuestionIndex: idx,
		Category:      tmpl.Category,
		QuestionText:  tmpl.Text,
		UserAnswer:    userText,
		FilePath:      filePath,
		Completed:     true,
	}

	switch tmpl.Category {
	case model.CategoryPractical:
		if filePath == "" {
			return nil, util.ErrFileRequired
		}
		eval, err := s.Inspector.EvaluateWorkbook(filePath, tmpl.ExpectedSheets, tmpl.TaskType)
		if err != nil {
			return nil, err
		}
		question.Score = ptr(eval.Overall)
		question.Evaluation = mustJSON(eval)
		return &turnOutcome{
			question: question,
			excelEval: &model.ExcelEvaluation{
				FormulaAccuracy: eval.FormulaAccuracy,
				Structure:       eval.Structure,
				BestPractices:   eval.BestPractices,
				Details: model.ExcelEvaluationDetails{
					FoundFormulas:   eval.FoundFormulas,
					Issues:          eval.Issues,
					Recommendations: eval.Recommendations,
				}.Marshal(),
			},
			feedback: practicalFeedback(eval),
		}, nil

	case model.CategoryConceptual:
		eval, err := s.Evaluator.ScoreConceptual(ctx, tmpl.Text, tmpl.ExpectedAnswer, userText)
		if err != nil {
			return nil, err
		}
		question.Score = ptr(eval.Score)
		question.Evaluation = mustJSON(eval)
		return &turnOutcome{question: question, feedback: conceptualFeedback(eval)}, nil

	case model.CategoryExplanation:
		eval, err := s.Evaluator.ScoreExplanation(ctx, tmpl.Text, userText)
		if err != nil {
			return nil, err
		}
		// The overall is computed by the AI per its prompt contract and
		// trusted verbatim, as is the feedback text.
		question.Score = ptr(eval.Overall)
		question.Evaluation = mustJSON(eval)
		return &turnOutcome{question: question, feedback: eval.Feedback}, nil

	case model.CategoryBehavioral:
		question.Score = ptr(80)
		return &turnOutcome{question: question, feedback: BehavioralAck}, nil
	}

	return nil, fmt.Errorf("unknown question category %q", tmpl.Category)
}

// appendQuestionMessages emits the AI message for the question at idx, plus
// a template_download message when the question is a practical task.
func (s *InterviewService) appendQuestionMessages(tx *gorm.DB, session *model.InterviewSession, idx int) error {
	tmpl := InterviewScript[idx]

	msgType := model.MessageText
	if tmpl.Category == model.CategoryPractical {
		msgType = model.MessageTask
	}
	qMsg := &model.ChatMessage{
		SessionID: session.ID,
		Sender:    model.SenderAI,
		Type:      msgType,
		Content:   tmpl.Text,
		Metadata:  mustJSON(map[string]interface{}{"questionIndex": idx}),
	}
	if err := s.Messages.WithTx(tx).Create(qMsg); err != nil {
		return err
	}

	if tmpl.Category != model.CategoryPractical {
		return nil
	}
	dl := &model.ChatMessage{
		SessionID: session.ID,
		Sender:    model.SenderAI,
		Type:      model.MessageTemplateDownload,
		Content: fmt.Sprintf("Download the task workbook below. You have %d minutes for this task.",
			tmpl.TimeLimitMin),
		Metadata: mustJSON(map[string]interface{}{
			"templateType":     tmpl.TemplateType,
			"timeLimitMinutes": tmpl.TimeLimitMin,
		}),
	}
	return s.Messages.WithTx(tx).Create(dl)
}

func (s *InterviewService) turnResult(session *model.InterviewSession) (*TurnResult, error) {
	msgs, err := s.Messages.ListBySession(session.ID)
	if err != nil {
		return nil, err
	}
	return &TurnResult{Session: session, Messages: msgs}, nil
}

func (s *InterviewService) findSession(sessionID string, userID uint) (*model.InterviewSession, error) {
	session, err := s.Sessions.FindByIDForUser(sessionID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// acquireTurnLock guards a session against concurrent turns racing the
// index. Without Redis configured the guard is skipped.
func (s *InterviewService) acquireTurnLock(ctx context.Context, sessionID string) (func(), error) {
	if s.RDB == nil {
		return nil, nil
	}
	key := "interview:turn:" + sessionID
	ok, err := s.RDB.SetNX(ctx, key, 1, turnLockTTL).Result()
	if err != nil {
		// Redis being down must not take the interview down with it.
		logger.Log.Warn("turn lock unavailable", zap.Error(err))
		return nil, nil
	}
	if !ok {
		return nil, util.ErrTurnInProgress
	}
	return func() {
		s.RDB.Del(context.Background(), key)
	}, nil
}

// archiveWorkbook copies an uploaded practical-task workbook into long-term
// storage. Best effort: archival failure never fails the turn.
func (s *InterviewService) archiveWorkbook(ctx context.Context, session *model.InterviewSession, q *model.InterviewQuestion) {
	if s.Storage == nil || q.FilePath == "" {
		return
	}
	key := fmt.Sprintf("interviews/%s/q%d%s", session.ID, q.QuestionIndex, filepath.Ext(q.FilePath))
	if _, err := s.Storage.UploadFile(ctx, key, q.FilePath, util.MimeXLSX); err != nil {
		logger.Log.Warn("workbook archival failed",
			zap.String("session", session.ID),
			zap.Error(err))
	}
}

// averageByCategory averages question scores per category; questions with
// no numeric score count as zero, empty categories average to zero.
func averageByCategory(questions []model.InterviewQuestion) map[model.QuestionCategory]float64 {
	sums := make(map[model.QuestionCategory]float64)
	counts := make(map[model.QuestionCategory]int)
	for _, q := range questions {
		score := 0.0
		if q.Score != nil {
			score = *q.Score
		}
		sums[q.Category] += score
		counts[q.Category]++
	}

	averages := make(map[model.QuestionCategory]float64, len(CategoryWeights))
	for category := range CategoryWeights {
		if counts[category] > 0 {
			averages[category] = sums[category] / float64(counts[category])
		} else {
			averages[category] = 0
		}
	}
	return averages
}

// overallScore weights the category averages into the final 0-100 score.
func overallScore(averages map[model.QuestionCategory]float64) float64 {
	total := 0.0
	for category, weight := range CategoryWeights {
		total += averages[category] * weight
	}
	return math.Round(total)
}

func categorySummaries(questions []model.InterviewQuestion, averages map[model.QuestionCategory]float64) []CategorySummary {
	counts := make(map[model.QuestionCategory]int)
	for _, q := range questions {
		counts[q.Category]++
	}
	summaries := make([]CategorySummary, 0, len(averages))
	for _, category := range []model.QuestionCategory{
		model.CategoryPractical,
		model.CategoryConceptual,
		model.CategoryExplanation,
		model.CategoryBehavioral,
	} {
		summaries = append(summaries, CategorySummary{
			Category: string(category),
			Average:  averages[category],
			Answers:  counts[category],
		})
	}
	return summaries
}

// practicalFeedback bands the workbook score at 80/60 and itemizes issues.
func practicalFeedback(eval *WorkbookEvaluation) string {
	var b strings.Builder
	switch {
	case eval.Overall >= 80:
		fmt.Fprintf(&b, "Excellent work! Your workbook scored %.0f/100.", eval.Overall)
	case eval.Overall >= 60:
		fmt.Fprintf(&b, "Good job. Your workbook scored %.0f/100.", eval.Overall)
	default:
		fmt.Fprintf(&b, "Your workbook scored %.0f/100 — there is room for improvement.", eval.Overall)
	}
	if len(eval.Issues) > 0 {
		b.WriteString(" Issues found:")
		for _, issue := range eval.Issues {
			b.WriteString("\n- ")
			b.WriteString(issue)
		}
	}
	return b.String()
}

// conceptualFeedback bands the AI score at 70/50.
func conceptualFeedback(eval *ConceptualEvaluation) string {
	switch {
	case eval.Score >= 70:
		return fmt.Sprintf("Excellent answer (%.0f/100). %s", eval.Score, eval.Reasoning)
	case eval.Score >= 50:
		return fmt.Sprintf("Good answer (%.0f/100). %s", eval.Score, eval.Reasoning)
	default:
		return fmt.Sprintf("You show some knowledge here (%.0f/100). %s", eval.Score, eval.Reasoning)
	}
}

func mustJSON(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func ptr(v float64) *float64 {
	return &v
}
