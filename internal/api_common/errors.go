package api_common

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// HttpStatusError lets inner code drive the final HTTP response. It carries two
// message tracks: InternalErr stays in logs and debug headers, ResponseMsg is
// what the caller sees. ResponseMsgOrDefault never returns an empty string, so
// every error response carries a message.
type HttpStatusError struct {
	Status      int
	ResponseMsg string
	InternalErr error
}

func (e *HttpStatusError) Error() string {
	if e.InternalErr != nil {
		return e.InternalErr.Error()
	}
	if e.ResponseMsg != "" {
		return e.ResponseMsg
	}
	if e.Status != 0 {
		return fmt.Sprintf("HTTP %d: %s", e.Status, statusText(e.Status))
	}
	return "unknown error"
}

func (e *HttpStatusError) ResponseMsgOrDefault() string {
	if e.ResponseMsg != "" {
		return e.ResponseMsg
	}
	return statusText(e.Status)
}

// ErrorResponse is the serialized error format for the service. Construct via
// the builder rather than directly.
type ErrorResponse struct {
	Error      string `json:"error"`
	StackTrace string `json:"stack_trace,omitempty"`
}

func (e *HttpStatusError) toErrorResponse(cfg Debuggable) *ErrorResponse {
	resp := &ErrorResponse{
		Error: e.ResponseMsgOrDefault(),
	}

	if cfg.IsDebugMode() && e.InternalErr != nil {
		resp.StackTrace = fmt.Sprintf("%+v", e.InternalErr)
	}

	return resp
}

func (e *HttpStatusError) WriteGinResponse(cfg Debuggable, gctx *gin.Context) {
	if e.InternalErr != nil {
		AddDebugHeaderError(cfg, gctx, e.InternalErr)
	}

	gctx.Header("Content-Type", "application/json")
	gctx.PureJSON(e.Status, e.toErrorResponse(cfg))
}

// AsHttpStatusError converts an error to an HTTP status error. If an HTTP
// status error is wrapped in the passed error, the status is taken from the
// wrapped error; otherwise the result is a 500.
func AsHttpStatusError(err error) *HttpStatusError {
	return NewHttpStatusErrorBuilder().
		WithInternalErr(err).
		BuildStatusError()
}

func statusText(status int) string {
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Unknown Status"
}

type HttpStatusErrorBuilder interface {
	// WithStatus sets the http status of the error to a specific value
	WithStatus(status int) HttpStatusErrorBuilder

	WithStatusBadRequest() HttpStatusErrorBuilder
	WithStatusUnauthorized() HttpStatusErrorBuilder
	WithStatusNotFound() HttpStatusErrorBuilder
	WithStatusConflict() HttpStatusErrorBuilder
	WithStatusPreconditionFailed() HttpStatusErrorBuilder
	WithStatusInternalServerError() HttpStatusErrorBuilder

	// DefaultStatus sets the http status if it has not already been set to a value other than 500
	DefaultStatus(status int) HttpStatusErrorBuilder

	DefaultStatusBadRequest() HttpStatusErrorBuilder
	DefaultStatusNotFound() HttpStatusErrorBuilder

	WithResponseMsg(msg string) HttpStatusErrorBuilder
	WithResponseMsgf(format string, args ...interface{}) HttpStatusErrorBuilder
	DefaultResponseMsg(msg string) HttpStatusErrorBuilder
	WithInternalErr(err error) HttpStatusErrorBuilder
	WithWrappedInternalErr(err error, msg string) HttpStatusErrorBuilder
	BuildStatusError() *HttpStatusError
	Build() error
}

type httpStatusErrorBuilder struct {
	err *HttpStatusError
}

func NewHttpStatusErrorBuilder() HttpStatusErrorBuilder {
	return &httpStatusErrorBuilder{
		err: &HttpStatusError{
			Status: http.StatusInternalServerError,
		},
	}
}

func (b *httpStatusErrorBuilder) WithStatus(status int) HttpStatusErrorBuilder {
	b.err.Status = status
	return b
}

func (b *httpStatusErrorBuilder) WithStatusBadRequest() HttpStatusErrorBuilder {
	return b.WithStatus(http.StatusBadRequest)
}

func (b *httpStatusErrorBuilder) WithStatusUnauthorized() HttpStatusErrorBuilder {
	return b.WithStatus(http.StatusUnauthorized)
}

func (b *httpStatusErrorBuilder) WithStatusNotFound() HttpStatusErrorBuilder {
	return b.WithStatus(http.StatusNotFound)
}

func (b *httpStatusErrorBuilder) WithStatusConflict() HttpStatusErrorBuilder {
	return b.WithStatus(http.StatusConflict)
}

func (b *httpStatusErrorBuilder) WithStatusPreconditionFailed() HttpStatusErrorBuilder {
	return b.WithStatus(http.StatusPreconditionFailed)
}

func (b *httpStatusErrorBuilder) WithStatusInternalServerError() HttpStatusErrorBuilder {
	return b.WithStatus(http.StatusInternalServerError)
}

func (b *httpStatusErrorBuilder) DefaultStatus(status int) HttpStatusErrorBuilder {
	if b.err.Status == 0 || b.err.Status == http.StatusInternalServerError {
		b.err.Status = status
	}
	return b
}

func (b *httpStatusErrorBuilder) DefaultStatusBadRequest() HttpStatusErrorBuilder {
	return b.DefaultStatus(http.StatusBadRequest)
}

func (b *httpStatusErrorBuilder) DefaultStatusNotFound() HttpStatusErrorBuilder {
	return b.DefaultStatus(http.StatusNotFound)
}

func (b *httpStatusErrorBuilder) WithResponseMsg(msg string) HttpStatusErrorBuilder {
	b.err.ResponseMsg = msg
	return b
}

func (b *httpStatusErrorBuilder) WithResponseMsgf(format string, args ...interface{}) HttpStatusErrorBuilder {
	return b.WithResponseMsg(fmt.Sprintf(format, args...))
}

func (b *httpStatusErrorBuilder) DefaultResponseMsg(msg string) HttpStatusErrorBuilder {
	if b.err.ResponseMsg == "" {
		b.err.ResponseMsg = msg
	}
	return b
}

func (b *httpStatusErrorBuilder) WithInternalErr(err error) HttpStatusErrorBuilder {
	var existing *HttpStatusError
	if errors.As(err, &existing) {
		if err == existing {
			b.err = existing
		} else {
			b.err.ResponseMsg = existing.ResponseMsg
			b.err.Status = existing.Status
			b.err.InternalErr = err
		}
	} else {
		b.err.InternalErr = err
	}

	return b
}

func (b *httpStatusErrorBuilder) WithWrappedInternalErr(err error, msg string) HttpStatusErrorBuilder {
	b.WithInternalErr(err)
	b.err.InternalErr = errors.Wrap(b.err.InternalErr, msg)
	return b
}

func (b *httpStatusErrorBuilder) BuildStatusError() *HttpStatusError {
	return b.err
}

func (b *httpStatusErrorBuilder) Build() error {
	return b.BuildStatusError()
}

// HttpStatusErrorIsStatusCode checks if the error is an HttpStatusError with
// the passed status code. Intended for unit tests.
func HttpStatusErrorIsStatusCode(err error, statusCode int) bool {
	var he *HttpStatusError
	return errors.As(err, &he) && he.Status == statusCode
}
