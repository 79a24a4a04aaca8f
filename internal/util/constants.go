package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeXLS  = "application/vnd.ms-excel"
)

// AllowedSpreadsheetTypes are the only declared content types accepted for
// practical-task uploads.
var AllowedSpreadsheetTypes = []string{MimeXLSX, MimeXLS}

// UploadExtension is appended to every stored temp workbook regardless of
// the uploaded filename.
const UploadExtension = ".xlsx"
