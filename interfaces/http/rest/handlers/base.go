// Package handlers holds the HTTP handlers of the ontology API.
package handlers

import (
	"net/http"

	"ontology-backend/pkg/common"
	apperrors "ontology-backend/pkg/errors"

	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type base struct {
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

func newBase(errs *apperrors.ErrorHandler, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errs == nil {
		errs = apperrors.NewErrorHandler(logger, false)
	}
	return base{errors: errs, logger: logger}
}

func (b base) respond(w http.ResponseWriter, status int, data interface{}) {
	common.RespondJSON(w, status, data)
}

func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	b.errors.Handle(w, r, err)
}

// decode reads a JSON body into v. It writes the error response itself and
// reports whether the handler may continue.
func (b base) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := common.ParseJSONBody(w, r, v, maxBodyBytes); err != nil {
		b.fail(w, r, err)
		return false
	}
	return true
}
