// Package ranking orders exams by how urgently they need attention.
package ranking

import (
	"sort"
	"time"

	"examtracker/internal/models"
	"examtracker/internal/validation"
)

// UrgencyLevel maps the number of days left before an exam to a weight.
// Due or overdue exams weigh the most.
func UrgencyLevel(daysUntil int) int {
	switch {
	case daysUntil <= 0:
		return 10
	case daysUntil <= 3:
		return 5
	case daysUntil <= 7:
		return 3
	case daysUntil <= 14:
		return 2
	default:
		return 1
	}
}

// DaysUntil counts calendar days from today to date; negative when date has passed
func DaysUntil(date, today time.Time) int {
	return int(validation.Day(date).Sub(validation.Day(today)).Hours() / 24)
}

// PriorityScore combines the exam's preparation gap with the urgency weight
func PriorityScore(exam models.Exam, urgency int) int {
	return exam.PrepGap() * urgency
}

// Rank scores exams against today and returns them most urgent first.
// Exams whose stored date cannot be parsed are left out. Ties keep the input
// order, so a (date, id) ordered input gives a deterministic result.
func Rank(exams []models.Exam, today time.Time) []models.RankedExam {
	ranked := make([]models.RankedExam, 0, len(exams))
	for _, exam := range exams {
		date, err := validation.ParseDate(exam.Date)
		if err != nil {
			continue
		}

		days := DaysUntil(date, today)
		urgency := UrgencyLevel(days)
		ranked = append(ranked, models.RankedExam{
			Exam:          exam,
			DaysUntil:     days,
			UrgencyLevel:  urgency,
			PriorityScore: PriorityScore(exam, urgency),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PriorityScore > ranked[j].PriorityScore
	})

	return ranked
}
