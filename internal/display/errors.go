package display

import (
	"errors"

	"gpudisplay/pkg/egl"
)

var (
	// errRecoveryRefused is returned by device recovery while a context
	// with reset notification is alive; the application must destroy its
	// contexts first.
	errRecoveryRefused = egl.Errorf(egl.ContextLost, "", "contexts with reset notification are alive")

	errNilWindow = egl.Errorf(egl.BadParameter, "", "nil window")
)

// opError returns err as an *egl.Error tagged with op.
func opError(op string, err error) *egl.Error {
	var e *egl.Error
	if errors.As(err, &e) {
		if e.Op != "" {
			return e
		}
		return &egl.Error{Code: e.Code, Op: op, Err: e.Err}
	}
	return egl.Wrap(egl.BadAlloc, op, err)
}
