package util

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailRegistered  = errors.New("email already registered")
	ErrSessionNotFound  = errors.New("interview session not found")
	ErrSessionCompleted = errors.New("interview session already completed")
	ErrSessionAbandoned = errors.New("interview session abandoned")
	ErrFileRequired     = errors.New("practical task requires an uploaded workbook")
	ErrTemplateNotFound = errors.New("unknown template type")
	ErrInvalidFileType  = errors.New("invalid file type")
	ErrFileTooLarge     = errors.New("file exceeds size limit")
	ErrEmptyAIResponse  = errors.New("AI service returned an empty response")
	ErrTurnInProgress   = errors.New("another turn is already in progress for this session")
	ErrPermissionDenied = errors.New("permission denied")
)
