package handlers

const (
	ErrInvalidOwnerID      = "Invalid owner id"
	ErrInvalidExamID       = "Invalid exam id"
	ErrInvalidRequestBody  = "Invalid request body"
	ErrInvalidToday        = "Invalid today parameter, use DD-MM-YYYY"
	ErrExamNotFound        = "Exam not found"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"
)
