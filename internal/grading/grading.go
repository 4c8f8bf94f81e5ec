// Package grading computes result totals and letter grades.
package grading

import "github.com/shopspring/decimal"

// Grade is a letter grade awarded for a total score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeE Grade = "E"
	GradeF Grade = "F"
)

type band struct {
	min   decimal.Decimal
	grade Grade
}

// Inclusive lower bounds, highest first.
var bands = []band{
	{min: decimal.NewFromInt(70), grade: GradeA},
	{min: decimal.NewFromInt(60), grade: GradeB},
	{min: decimal.NewFromInt(50), grade: GradeC},
	{min: decimal.NewFromInt(45), grade: GradeD},
	{min: decimal.NewFromInt(40), grade: GradeE},
}

// Outcome is the derived part of a result.
type Outcome struct {
	Total decimal.Decimal
	Grade Grade
}

// Evaluate sums the test and exam components and grades the total.
// Bounds are the caller's concern.
func Evaluate(test, exam decimal.Decimal) Outcome {
	total := test.Add(exam)
	return Outcome{Total: total, Grade: GradeFor(total)}
}

// GradeFor maps a total score to its letter grade.
func GradeFor(total decimal.Decimal) Grade {
	for _, b := range bands {
		if total.GreaterThanOrEqual(b.min) {
			return b.grade
		}
	}
	return GradeF
}
