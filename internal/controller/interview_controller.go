package controller

import (
	"excel_interview_backend/internal/config"
	"excel_interview_backend/internal/model"
	"excel_interview_backend/internal/service"
	"excel_interview_backend/internal/util"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

type InterviewController struct {
	Service   *service.InterviewService
	Templates *service.TemplateService
	Config    *config.Config
}

func NewInterviewController(svc *service.InterviewService, templates *service.TemplateService, cfg *config.Config) *InterviewController {
	return &InterviewController{Service: svc, Templates: templates, Config: cfg}
}

// Start godoc
// @Summary Start a new interview session
// @Description Creates a session at question index -1 with a welcome message
// @Tags interviews
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response{data=model.InterviewSession}
// @Failure 500 {object} util.Response
// @Router /api/interviews/start [post]
func (c *InterviewController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	session, err := c.Service.Start(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, session)
}

// Get godoc
// @Summary Get an interview session
// @Description Session, transcript, answered questions and progress percentage
// @Tags interviews
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} util.Response{data=service.SessionDetail}
// @Failure 404 {object} util.Response
// @Router /api/interviews/{sessionId} [get]
func (c *InterviewController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	detail, err := c.Service.Get(ctx.Request.Context(), ctx.Param("sessionId"), claims.UserID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	util.Success(ctx, detail)
}

type MessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// Message godoc
// @Summary Submit an answer turn
// @Description Logs the user message, scores the current answer and advances the script
// @Tags interviews
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path string true "Session ID"
// @Param body body MessageRequest true "User message"
// @Success 200 {object} util.Response{data=service.TurnResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/interviews/{sessionId}/message [post]
func (c *InterviewController) Message(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var req MessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.HandleTurn(ctx.Request.Context(), ctx.Param("sessionId"), claims.UserID, req.Message, "")
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// Upload godoc
// @Summary Submit a completed practical-task workbook
// @Description Accepts an xlsx/xls upload (max 10MB) as the answer to the current practical task
// @Tags interviews
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path string true "Session ID"
// @Param excel formData file true "Completed workbook"
// @Param message formData string false "Accompanying message"
// @Success 200 {object} util.Response{data=service.TurnResult}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/interviews/{sessionId}/upload [post]
func (c *InterviewController) Upload(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	header, err := ctx.FormFile("excel")
	if err != nil {
		util.BadRequest(ctx, "excel file is required")
		return
	}

	// Transport-level validation before any business logic sees the file.
	if err := util.ValidateSpreadsheetUpload(header, c.Config.Upload.MaxSizeMB); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	// Stored under a generated name with a fixed extension, whatever the
	// client called the file.
	dst := filepath.Join(c.Config.Upload.TempDir, model.GenerateUUID()+util.UploadExtension)
	if err := ctx.SaveUploadedFile(header, dst); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	message := ctx.PostForm("message")
	if message == "" {
		message = "I have uploaded my completed workbook."
	}

	result, err := c.Service.HandleTurn(ctx.Request.Context(), ctx.Param("sessionId"), claims.UserID, message, dst)
	if err != nil {
		os.Remove(dst)
		c.respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// DownloadTemplate godoc
// @Summary Download a practical-task template workbook
// @Description Generates the workbook on demand; the temp file is deleted after send
// @Tags interviews
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security ApiKeyAuth
// @Param sessionId path string true "Session ID"
// @Param templateType path string true "Template type" Enums(sales_analysis, data_cleaning)
// @Success 200 {file} binary
// @Failure 404 {object} util.Response
// @Router /api/interviews/{sessionId}/template/{templateType} [get]
func (c *InterviewController) DownloadTemplate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	if _, err := c.Service.Get(ctx.Request.Context(), ctx.Param("sessionId"), claims.UserID); err != nil {
		c.respondError(ctx, err)
		return
	}

	path, name, err := c.Templates.Generate(ctx.Param("templateType"))
	if err != nil {
		c.respondError(ctx, err)
		return
	}
	defer os.Remove(path)

	ctx.FileAttachment(path, name)
}

// History godoc
// @Summary List the caller's interview sessions
// @Tags interviews
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.InterviewSession}
// @Router /api/interviews/history [get]
func (c *InterviewController) History(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	sessions, err := c.Service.History(ctx.Request.Context(), claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, sessions)
}

// Abandon godoc
// @Summary Abandon an in-progress session
// @Tags interviews
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path string true "Session ID"
// @Success 200 {object} util.Response{data=model.InterviewSession}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/interviews/{sessionId}/abandon [post]
func (c *InterviewController) Abandon(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	session, err := c.Service.Abandon(ctx.Request.Context(), ctx.Param("sessionId"), claims.UserID)
	if err != nil {
		c.respondError(ctx, err)
		return
	}

	util.Success(ctx, session)
}

// respondError maps service errors onto the 404/400/409/500 taxonomy.
func (c *InterviewController) respondError(ctx *gin.Context, err error) {
	switch err {
	case util.ErrSessionNotFound:
		util.NotFound(ctx)
	case util.ErrFileRequired, util.ErrInvalidFileType, util.ErrFileTooLarge, util.ErrTemplateNotFound:
		util.BadRequest(ctx, err.Error())
	case util.ErrSessionCompleted, util.ErrSessionAbandoned, util.ErrTurnInProgress:
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
