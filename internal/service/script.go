package service

import "excel_interview_backend/internal/model"

// TaskType identifies a practical task for the spreadsheet inspector.
type TaskType string

const (
	TaskSalesAnalysis TaskType = "sales_analysis"
	TaskDataCleaning  TaskType = "data_cleaning"
)

// QuestionTemplate is one step of the fixed interview script. The script is
// data, not code: swapping questions must never touch the flow controller.
type QuestionTemplate struct {
	Category       model.QuestionCategory
	Text           string
	ExpectedAnswer string
	// Practical-task metadata. Zero values for non-practical entries.
	TaskType       TaskType
	TemplateType   string
	ExpectedSheets []string
	TimeLimitMin   int
}

// InterviewScript is the fixed 8-question walk. Category order mirrors the
// scoring weights (practical 50, conceptual 25, explanation 15, behavioral 10)
// approximately by count.
var InterviewScript = []QuestionTemplate{
	{
		Category: model.CategoryConceptual,
		Text: "Let's start with lookups. What is the difference between VLOOKUP and " +
			"INDEX/MATCH, and when would you prefer one over the other?",
		ExpectedAnswer: "VLOOKUP searches the first column of a range and returns a value " +
			"from a column to the right; INDEX/MATCH separates the lookup from the return " +
			"range, so it can look left, survives column insertion, and is faster on wide tables.",
	},
	{
		Category: model.CategoryConceptual,
		Text: "Explain absolute, relative and mixed cell references ($A$1, A1, $A1). " +
			"When does each matter while filling a formula across a range?",
		ExpectedAnswer: "Relative references shift with the fill direction, absolute " +
			"references stay fixed, mixed references fix only the row or the column; " +
			"choosing wrong breaks copied formulas.",
	},
	{
		Category: model.CategoryPractical,
		Text: "Practical task: download the sales analysis workbook. Using the raw data, " +
			"build an Analysis sheet with per-region totals (SUMIFS) and a product price " +
			"lookup (XLOOKUP or INDEX/MATCH), then summarise the results on a Summary sheet. " +
			"Upload your completed workbook when you are done.",
		TaskType:       TaskSalesAnalysis,
		TemplateType:   "sales_analysis",
		ExpectedSheets: []string{"Raw Data", "Analysis", "Summary"},
		TimeLimitMin:   20,
	},
	{
		Category: model.CategoryPractical,
		Text: "Practical task: download the customer data workbook. The data is messy — " +
			"duplicated rows, inconsistent casing, broken dates. Produce a Clean Data sheet " +
			"following the instructions in the workbook, then upload your result.",
		TaskType:       TaskDataCleaning,
		TemplateType:   "data_cleaning",
		ExpectedSheets: []string{"Customer Data", "Clean Data"},
		TimeLimitMin:   15,
	},
	{
		Category: model.CategoryExplanation,
		Text: "Imagine a colleague who has never used a pivot table. Explain, step by " +
			"step, what a pivot table does and walk them through summarising monthly sales " +
			"by region with one.",
	},
	{
		Category: model.CategoryConceptual,
		Text: "What is the difference between SUMIF and SUMIFS? Give an example where " +
			"SUMIF is not enough.",
		ExpectedAnswer: "SUMIF takes a single criterion; SUMIFS accepts multiple " +
			"criteria ranges and is required whenever a sum is conditional on more than " +
			"one column, e.g. region and month together.",
	},
	{
		Category: model.CategoryBehavioral,
		Text: "Tell me about a time you used Excel to solve a real business problem " +
			"under a deadline. What was the situation, what did you build, and what was " +
			"the outcome?",
	},
	{
		Category: model.CategoryConceptual,
		Text: "Finally: what is a circular reference, how does Excel warn you about it, " +
			"and how would you track one down in a large workbook?",
		ExpectedAnswer: "A formula that depends directly or indirectly on its own cell; " +
			"Excel shows a warning and a status-bar indicator, and Formula Auditing / " +
			"Error Checking traces the dependency chain.",
	},
}

// TotalQuestions is the length of the fixed script.
const TotalQuestions = 8

// CategoryWeights drive the overall completion score.
var CategoryWeights = map[model.QuestionCategory]float64{
	model.CategoryPractical:   0.5,
	model.CategoryConceptual:  0.25,
	model.CategoryExplanation: 0.15,
	model.CategoryBehavioral:  0.1,
}

// WelcomeMessage opens every session, describing the four categories and
// their weights.
const WelcomeMessage = "Welcome to the Excel skills interview! Over the next " +
	"8 questions I will assess four areas: practical spreadsheet tasks (50%), " +
	"conceptual knowledge (25%), your ability to explain concepts (15%) and " +
	"your working experience (10%). Reply with anything to receive the first " +
	"question. Good luck!"

// BehavioralAck is the canned acknowledgment for behavioral answers, which
// receive a fixed score and no AI call.
const BehavioralAck = "Thank you for sharing that experience. Real-world " +
	"context like this helps round out the technical picture."
