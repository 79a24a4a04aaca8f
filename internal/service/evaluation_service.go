package service

import (
	"context"
	"encoding/json"
	"excel_interview_backend/internal/config"
	"excel_interview_backend/internal/util"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ConceptualEvaluation is the schema returned for conceptual answers.
type ConceptualEvaluation struct {
	Score        float64  `json:"score"`
	Reasoning    string   `json:"reasoning"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// ExplanationEvaluation is the schema returned for explanation answers.
// Overall is computed by the model per the prompt contract
// (clarity*0.3 + accuracy*0.5 + completeness*0.2) and trusted verbatim.
type ExplanationEvaluation struct {
	Clarity      float64 `json:"clarity"`
	Accuracy     float64 `json:"accuracy"`
	Completeness float64 `json:"completeness"`
	Overall      float64 `json:"overall"`
	Feedback     string  `json:"feedback"`
}

// FinalReport is the narrative completion report.
type FinalReport struct {
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	Recommendations []string `json:"recommendations"`
}

// CategorySummary feeds the report generator: one line per category.
type CategorySummary struct {
	Category string  `json:"category"`
	Average  float64 `json:"average"`
	Answers  int     `json:"answers"`
}

// Evaluator is the external-AI capability behind the flow controller.
// A deterministic stub substitutes for it in tests.
type Evaluator interface {
	ScoreConceptual(ctx context.Context, question, expected, answer string) (*ConceptualEvaluation, error)
	ScoreExplanation(ctx context.Context, question, answer string) (*ExplanationEvaluation, error)
	FreeReply(ctx context.Context, prompt string) (string, error)
	GenerateReport(ctx context.Context, overall float64, categories []CategorySummary) (*FinalReport, error)
}

// EvaluationService implements Evaluator against an OpenAI-compatible API,
// constraining every scoring call to a declared JSON schema. Single
// best-effort round trips: no retry, no caching.
type EvaluationService struct {
	client *openai.Client
	model  string
}

func NewEvaluationService(cfg config.AIConfig) *EvaluationService {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &EvaluationService{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

const evaluatorSystemPrompt = "You are a strict but fair Excel interview " +
	"assessor. Score answers on their technical substance, not their length. " +
	"All scores are integers from 0 to 100."

var conceptualSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"score": {"type": "number", "description": "0-100 overall score"},
		"reasoning": {"type": "string"},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"improvements": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["score", "reasoning", "strengths", "improvements"],
	"additionalProperties": false
}`)

func (s *EvaluationService) ScoreConceptual(ctx context.Context, question, expected, answer string) (*ConceptualEvaluation, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Score this Excel interview answer from 0 to 100.\n\nQuestion: %s\n", question)
	if expected != "" {
		fmt.Fprintf(&b, "\nKey points a strong answer covers: %s\n", expected)
	}
	fmt.Fprintf(&b, "\nCandidate answer: %s\n", answer)
	b.WriteString("\nReturn the score, a short reasoning, and bullet lists of strengths and improvements.")

	var result ConceptualEvaluation
	if err := s.generate(ctx, "conceptual_evaluation", conceptualSchema, b.String(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

var explanationSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"clarity": {"type": "number"},
		"accuracy": {"type": "number"},
		"completeness": {"type": "number"},
		"overall": {"type": "number"},
		"feedback": {"type": "string"}
	},
	"required": ["clarity", "accuracy", "completeness", "overall", "feedback"],
	"additionalProperties": false
}`)

func (s *EvaluationService) ScoreExplanation(ctx context.Context, question, answer string) (*ExplanationEvaluation, error) {
	prompt := fmt.Sprintf(
		"The candidate was asked to explain an Excel concept to a beginner.\n\n"+
			"Question: %s\n\nCandidate explanation: %s\n\n"+
			"Score clarity, accuracy and completeness from 0 to 100, then compute "+
			"overall = clarity*0.3 + accuracy*0.5 + completeness*0.2 and round to the "+
			"nearest integer. Write two or three sentences of feedback addressed to the candidate.",
		question, answer)

	var result ExplanationEvaluation
	if err := s.generate(ctx, "explanation_evaluation", explanationSchema, prompt, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *EvaluationService) FreeReply(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: evaluatorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("AI free reply: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", util.ErrEmptyAIResponse
	}
	return resp.Choices[0].Message.Content, nil
}

var reportSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"summary": {"type": "string"},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"improvements": {"type": "array", "items": {"type": "string"}},
		"recommendations": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["summary", "strengths", "improvements", "recommendations"],
	"additionalProperties": false
}`)

func (s *EvaluationService) GenerateReport(ctx context.Context, overall float64, categories []CategorySummary) (*FinalReport, error) {
	summaryJSON, err := json.Marshal(categories)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"An Excel skills interview just finished with an overall score of %.0f/100.\n"+
			"Per-category results: %s\n\n"+
			"Write a short narrative report for the hiring manager: a two-sentence "+
			"summary, then 2-4 strengths, 2-4 areas for improvement, and 2-4 concrete "+
			"recommendations for the candidate's next steps.",
		overall, summaryJSON)

	var result FinalReport
	if err := s.generate(ctx, "final_report", reportSchema, prompt, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// generate performs one schema-constrained chat completion and decodes the
// returned JSON into out.
func (s *EvaluationService) generate(ctx context.Context, schemaName string, schema json.RawMessage, prompt string, out interface{}) error {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: evaluatorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("AI %s: %w", schemaName, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return util.ErrEmptyAIResponse
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("AI %s: parse response: %w", schemaName, err)
	}
	return nil
}
