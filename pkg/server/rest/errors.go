package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/lintang-b-s/routingapi/pkg/engine"
	"github.com/lintang-b-s/routingapi/pkg/engine/routingalgorithm"
	"github.com/lintang-b-s/routingapi/pkg/snap"
	"github.com/lintang-b-s/routingapi/pkg/util"
)

// ErrResponse model info
//
//	@Description	error response
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string         `json:"status"`          // user-level status message
	AppCode       int64          `json:"code,omitempty"`  // application-specific error code
	ErrorText     string         `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string       `json:"validation,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInternalServerErrorRend(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "Internal server error.",
		ErrorText:      err.Error(),
	}
}

// statusClientClosedRequest is the nginx status for a request the client gave up on.
const statusClientClosedRequest = 499

func getStatusCode(code util.ErrorCode) int {
	switch code {
	case util.ErrNotFound:
		return http.StatusNotFound
	case util.ErrBadParamInput:
		return http.StatusBadRequest
	case util.ErrServiceUnavailable:
		return http.StatusServiceUnavailable
	case util.ErrTimeout:
		return http.StatusGatewayTimeout
	case util.ErrCanceled:
		return statusClientClosedRequest
	case util.ErrNotImplemented:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// RenderServiceError turns an error from the navigation service into a response with the
// status picked from its util.ErrorCode and details from the wrapped engine error.
func RenderServiceError(err error) render.Renderer {
	resp := &ErrResponse{
		Err:            err,
		HTTPStatusCode: getStatusCode(util.ErrorCodeOf(err)),
		StatusText:     http.StatusText(getStatusCode(util.ErrorCodeOf(err))),
		ErrorText:      err.Error(),
		AppCode:        int64(util.ErrorCodeOf(err)),
	}

	var uerr *util.Error
	if errors.As(err, &uerr) {
		resp.StatusText = uerr.Message()
	}

	var (
		snapErr *engine.SnapFailedError
		tooFar  *snap.TooFarError
		noPath  *routingalgorithm.NoPathError
		costErr *datastructure.InvalidEdgeCostError
	)
	switch {
	case errors.As(err, &tooFar):
		resp.Details = map[string]any{
			"distance":     tooFar.Distance,
			"max_distance": tooFar.MaxDistance,
			"vertex_id":    tooFar.VertexID,
			"metric":       tooFar.Metric,
			"hint":         "Pick points closer to the road network",
		}
		if errors.As(err, &snapErr) {
			resp.Details["endpoint"] = snapErr.Endpoint
		}
	case errors.As(err, &noPath):
		resp.Details = map[string]any{
			"start_vertex": noPath.StartVertex,
			"end_vertex":   noPath.EndVertex,
		}
	case errors.As(err, &costErr):
		resp.Details = map[string]any{
			"edge_id": costErr.EdgeID,
			"reverse": costErr.Reverse,
		}
	case errors.As(err, &snapErr):
		resp.Details = map[string]any{"endpoint": snapErr.Endpoint}
	}

	if resp.HTTPStatusCode == http.StatusInternalServerError && resp.Details == nil {
		// hide internals of unexpected failures
		resp.ErrorText = resp.StatusText
	}
	return resp
}
