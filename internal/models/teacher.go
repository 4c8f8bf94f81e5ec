package models

import "time"

// Teacher is a staff account. Teachers flagged IsEO act as examination officers.
type Teacher struct {
	ID           int64      `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Phone        string     `db:"phone" json:"phone"`
	ClassLevel   ClassLevel `db:"class_level" json:"class_level"`
	IsEO         bool       `db:"is_eo" json:"is_eo"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Info returns the public view of the teacher.
func (t *Teacher) Info() TeacherInfo {
	return TeacherInfo{ID: t.ID, Name: t.Name, ClassLevel: t.ClassLevel, IsEO: t.IsEO}
}

// TeacherInfo describes the authenticated teacher in responses.
type TeacherInfo struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	ClassLevel ClassLevel `json:"class_level"`
	IsEO       bool       `json:"is_eo"`
}
