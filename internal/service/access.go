package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/noah-isme/exam-records-api/internal/models"
	appErrors "github.com/noah-isme/exam-records-api/pkg/errors"
)

// requireTeacher returns the acting teacher or an Unauthenticated error.
func requireTeacher(actor models.Actor) (*models.Teacher, error) {
	if !actor.Authenticated() {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "you must log in first")
	}
	return actor.Teacher, nil
}

// requireEO returns the acting teacher when they are an examination officer.
func requireEO(actor models.Actor) (*models.Teacher, error) {
	teacher, err := requireTeacher(actor)
	if err != nil {
		return nil, err
	}
	if !teacher.IsEO {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "access denied, EO only")
	}
	return teacher, nil
}

// storageError classifies a repository failure. Lost connections surface as
// STORAGE_UNAVAILABLE, anything else as an internal error.
func storageError(err error, message string) *appErrors.Error {
	if isConnectionFailure(err) {
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, message)
	}
	return appErrors.Internal(err, message)
}

func isConnectionFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
