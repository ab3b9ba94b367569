package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ukane-philemon/studentmarks/internal/db"
	customerror "github.com/ukane-philemon/studentmarks/internal/errors"
	"go.uber.org/zap"
)

// maxRequestBodySize limits the size of JSON request bodies.
const maxRequestBodySize = 1 << 16

// handleError maps err to a response status. User facing errors are returned
// as is; anything else is logged before returning a special error.
func (s *Server) handleError(err error) (int, error) {
	switch {
	case errors.Is(err, db.ErrorOutOfRange), errors.Is(err, db.ErrorEmptyStore):
		return http.StatusNotFound, err
	case errors.Is(err, db.ErrorInvalidRequest):
		return http.StatusBadRequest, err
	case errors.Is(err, db.ErrorNotLoaded):
		return http.StatusServiceUnavailable, err
	}

	s.log.Error("SERVER ERROR", zap.Error(err))
	return http.StatusInternalServerError, &customerror.ErrorUnknown{}
}

// respondError writes the response for err as mapped by handleError.
func (s *Server) respondError(res http.ResponseWriter, err error) {
	status, err := s.handleError(err)
	writeError(res, status, err)
}

func writeError(res http.ResponseWriter, status int, err error) {
	writeJSON(res, status, errorResponse{Error: err.Error()})
}

func writeJSON(res http.ResponseWriter, status int, v any) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	json.NewEncoder(res).Encode(v)
}

// decodeJSON decodes the request body into v. Returns db.ErrorInvalidRequest
// for bodies that are not valid JSON for v.
func decodeJSON(res http.ResponseWriter, req *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(res, req.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", db.ErrorInvalidRequest, err)
	}
	return nil
}
