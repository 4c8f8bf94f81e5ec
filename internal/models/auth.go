package models

import "github.com/golang-jwt/jwt/v5"

// Landing views returned after login or used as redirect targets.
const (
	ViewLogin            = "login"
	ViewTeacherDashboard = "teacher_dashboard"
	ViewEODashboard      = "eo_dashboard"
)

// LoginRequest holds credentials for authenticating a teacher.
type LoginRequest struct {
	Name     string `json:"name" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the session token and the teacher's landing view.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
	Teacher   TeacherInfo `json:"teacher"`
	Redirect  string      `json:"redirect"`
}

// SessionClaims is the signed payload of a session token. It only names the
// server side session; the teacher binding lives in the session store.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
