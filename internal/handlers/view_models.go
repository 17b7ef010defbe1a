package handlers

import "examtracker/internal/models"

// AddExamRequest is the body of POST /api/owners/:ownerID/exams
type AddExamRequest struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Prep int    `json:"prep"`
}

// UpdatePrepRequest is the body of PATCH /api/owners/:ownerID/exams/:examID
type UpdatePrepRequest struct {
	Prep *int `json:"prep" binding:"required"`
}

type ExamResponse struct {
	Exam *models.Exam `json:"exam"`
}

type ExamListResponse struct {
	Exams []models.Exam `json:"exams"`
}

type RankedExamsResponse struct {
	Today string              `json:"today"`
	Exams []models.RankedExam `json:"exams"`
}

type ClearResponse struct {
	Removed int64 `json:"removed"`
}

// ErrorDetail describes why a request failed
type ErrorDetail struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
