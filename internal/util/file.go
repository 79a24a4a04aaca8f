package util

import (
	"mime/multipart"
)

// ValidateSpreadsheetUpload 校验上传文件的类型和大小
// The declared Content-Type must be one of the two standard spreadsheet
// types and the file must not exceed maxSizeMB. Validation runs before any
// business logic touches the file.
func ValidateSpreadsheetUpload(header *multipart.FileHeader, maxSizeMB int) error {
	if header.Size > int64(maxSizeMB)<<20 {
		return ErrFileTooLarge
	}

	declared := header.Header.Get("Content-Type")
	for _, allowed := range AllowedSpreadsheetTypes {
		if declared == allowed {
			return nil
		}
	}
	return ErrInvalidFileType
}
