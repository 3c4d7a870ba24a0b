package handler

import (
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kterra/authbridge/internal/middleware"
	"github.com/kterra/authbridge/internal/server"
	"github.com/kterra/authbridge/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// validate is the shared validator instance used by request types'
// Validate methods. validator caches struct metadata, so a single
// instance is both safe and faster than per-call construction.
var validate = validator.New()

// Handler is the base handler type that holds shared application
// dependencies.
//
// Concrete handlers (AuthHandler, NotesHandler, ...) embed it so they
// can reach shared resources via *server.Server (config, logger, db,
// redis, job).
type Handler struct {
	server *server.Server
}

// NewHandler constructs a base Handler.
//
// It returns the struct by value; the only field is a pointer, so the
// copy is cheap and still points at the same Server.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// --- Generic typed handler plumbing -----------------------------------------

// HandlerFunc represents a typed endpoint function that receives a
// validated request payload (Req) and returns a response (Res) or an
// error.
//
// Req must satisfy validation.Validatable. In practice Req is a POINTER
// type (e.g. *LoginRequest) because Echo's Bind needs a pointer to
// populate fields.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// HandlerFuncNoContent is a typed endpoint function for routes that
// return no response body (e.g. 204 No Content).
type HandlerFuncNoContent[Req validation.Validatable] func(c echo.Context, req Req) error

// ResponseHandler defines how a successful handler result is written to
// the HTTP response, and how observability attributes are attached for
// that response type.
type ResponseHandler interface {
	// Handle writes the HTTP response for the given result.
	Handle(c echo.Context, result interface{}) error

	// GetOperation returns an operation name used for structured logging,
	// distinguishing handler types (json/no_content/file) in logs.
	GetOperation() string

	// AddAttributes attaches New Relic attributes based on the response
	// type and/or result.
	AddAttributes(txn *newrelic.Transaction, result interface{})
}

// JSONResponseHandler writes JSON responses with a given status code.
type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result interface{}) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

func (h JSONResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	// http.status_code is already set by the tracing middleware.
}

// NoContentResponseHandler writes responses with no body (typically 204).
type NoContentResponseHandler struct {
	status int
}

func (h NoContentResponseHandler) Handle(c echo.Context, result interface{}) error {
	return c.NoContent(h.status)
}

func (h NoContentResponseHandler) GetOperation() string {
	return "handler_no_content"
}

func (h NoContentResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	// http.status_code is already set by the tracing middleware.
}

// FileResponseHandler writes a file download response.
//
// It expects the handler result to be a []byte.
type FileResponseHandler struct {
	status      int
	filename    string
	contentType string
}

func (h FileResponseHandler) Handle(c echo.Context, result interface{}) error {
	// Contract: the handler must return []byte. Anything else panics;
	// keep the contract tight.
	data := result.([]byte)

	// Force download via Content-Disposition.
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+h.filename)

	return c.Blob(h.status, h.contentType, data)
}

func (h FileResponseHandler) GetOperation() string {
	return "handler_file"
}

func (h FileResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	if txn != nil {
		txn.AddAttribute("file.name", h.filename)
		txn.AddAttribute("file.content_type", h.contentType)
		if data, ok := result.([]byte); ok {
			txn.AddAttribute("file.size_bytes", len(data))
		}
	}
}

// newRequest returns a fresh zero-valued instance of the request type.
//
// The prototype passed at route registration is shared by every request
// hitting that route; binding into it directly would be a data race.
// Each request gets its own allocation instead.
func newRequest[Req validation.Validatable](prototype Req) Req {
	t := reflect.TypeOf(prototype)
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(Req)
	}
	return prototype
}

// handleRequest is the shared execution pipeline for all handlers.
//
// It centralizes:
//
//   - request binding + validation
//   - structured logging (with request context)
//   - New Relic tracing attributes and error reporting
//   - timing metrics (validation duration, handler duration, total)
//   - response writing (json / no-content / file)
//
// Req must satisfy validation.Validatable (usually pointer-to-struct).
func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (interface{}, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	method := c.Request().Method
	route := c.Path()

	// The New Relic transaction is set by the nrecho middleware.
	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
		responseHandler.AddAttributes(txn, nil)
	}

	// The context-enhanced logger already carries correlation fields
	// (request_id, user_id, trace ids).
	loggerBuilder := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("method", method).
		Str("route", route)

	if fileHandler, ok := responseHandler.(FileResponseHandler); ok {
		loggerBuilder = loggerBuilder.
			Str("filename", fileHandler.filename).
			Str("content_type", fileHandler.contentType)
	}

	logger := loggerBuilder.Logger()

	logger.Info().Msg("handling request")

	// ---------------- Validation phase ---------------------------------------
	validationStart := time.Now()

	if err := validation.BindAndValidate(c, req); err != nil {
		validationDuration := time.Since(validationStart)

		logger.Error().
			Err(err).
			Dur("validation_duration", validationDuration).
			Msg("request validation failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("validation.status", "failed")
			txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
		}

		// Return the error and let the global error handler format the
		// response.
		return err
	}

	validationDuration := time.Since(validationStart)
	if txn != nil {
		txn.AddAttribute("validation.status", "success")
		txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
	}

	logger.Debug().
		Dur("validation_duration", validationDuration).
		Msg("request validation successful")

	// ---------------- Handler execution phase --------------------------------
	handlerStart := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handlerStart)

	if err != nil {
		totalDuration := time.Since(start)

		logger.Error().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", totalDuration).
			Msg("handler execution failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("handler.status", "error")
			txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
			txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())
		}
		return err
	}

	totalDuration := time.Since(start)

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())

		// Response-payload-dependent attributes (e.g. file size).
		responseHandler.AddAttributes(txn, result)
	}

	logger.Info().
		Dur("handler_duration", handlerDuration).
		Dur("validation_duration", validationDuration).
		Dur("total_duration", totalDuration).
		Msg("request completed successfully")

	return responseHandler.Handle(c, result)
}

// Handle wraps a typed handler with validation, error handling, logging,
// metrics, and tracing, returning an echo.HandlerFunc ready to register
// on a route.
//
// Usage:
//
//	g.POST("/login", handler.Handle(h.Handler, h.Login, http.StatusOK, &LoginRequest{}))
func Handle[Req validation.Validatable, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newRequest(req), func(c echo.Context, req Req) (interface{}, error) {
			return handler(c, req)
		}, JSONResponseHandler{status: status})
	}
}

// HandleFile wraps a handler that returns file bytes into the unified
// pipeline, setting download headers and writing a Blob response.
func HandleFile[Req validation.Validatable](
	h Handler,
	handler HandlerFunc[Req, []byte],
	status int,
	req Req,
	filename string,
	contentType string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newRequest(req), func(c echo.Context, req Req) (interface{}, error) {
			return handler(c, req)
		}, FileResponseHandler{
			status:      status,
			filename:    filename,
			contentType: contentType,
		})
	}
}

// HandleNoContent wraps a handler for endpoints that return no body
// (e.g. DELETE success with 204).
func HandleNoContent[Req validation.Validatable](
	h Handler,
	handler HandlerFuncNoContent[Req],
	status int,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newRequest(req), func(c echo.Context, req Req) (interface{}, error) {
			err := handler(c, req)
			return nil, err
		}, NoContentResponseHandler{status: status})
	}
}
