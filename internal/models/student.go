package models

import "time"

// Student is a learner registered to a class level.
type Student struct {
	ID         int64      `db:"id" json:"id"`
	FirstName  string     `db:"first_name" json:"first_name"`
	LastName   string     `db:"last_name" json:"last_name"`
	RegNo      string     `db:"reg_no" json:"reg_no"`
	ClassLevel ClassLevel `db:"class_level" json:"class_level"`
	TeacherID  *int64     `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// FullName joins first and last names.
func (s *Student) FullName() string {
	return joinName(s.FirstName, s.LastName)
}

func joinName(first, last string) string {
	if last == "" {
		return first
	}
	if first == "" {
		return last
	}
	return first + " " + last
}
