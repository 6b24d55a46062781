package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/docpipe/doc-chunk-service/api/model"
)

// Application error categories.
const (
	ErrorTypeValidation = "VALIDATION_ERROR"
	ErrorTypeNotFound   = "NOT_FOUND_ERROR"
	ErrorTypeInternal   = "INTERNAL_ERROR"
	ErrorTypeBusiness   = "BUSINESS_ERROR"
)

// AppError is an error carrying its category and HTTP status.
type AppError struct {
	Type    string // error category
	Message string // client-facing message
	Details string // extra context, logged but not always returned
	Code    int    // HTTP status code
}

// Error implements the error interface.
func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewValidationError builds a 400 validation error.
func NewValidationError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// NewNotFoundError builds a 404 error.
func NewNotFoundError(message string) AppError {
	return AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
		Code:    http.StatusNotFound,
	}
}

// NewInternalError builds a 500 error.
func NewInternalError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusInternalServerError,
	}
}

// NewBusinessError builds a 400 domain error.
func NewBusinessError(message string, details ...string) AppError {
	return AppError{
		Type:    ErrorTypeBusiness,
		Message: message,
		Details: strings.Join(details, "; "),
		Code:    http.StatusBadRequest,
	}
}

// ErrorMiddleware recovers panics and turns collected gin errors into the
// standard error envelope.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())

				log.WithFields(logrus.Fields{
					FieldError: err,
					"stack":    stack,
					FieldPath:  c.Request.URL.Path,
				}).Error("Panic recovered in API request")

				errorResponse := model.NewErrorResponse(
					http.StatusInternalServerError,
					"An unexpected error occurred",
				)
				if gin.Mode() == gin.DebugMode {
					errorResponse.Message = fmt.Sprintf("Panic: %v", err)
				}
				if traceID, exists := c.Get("TraceID"); exists {
					errorResponse.TraceID = traceID.(string)
				}

				c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		traceID := ""
		if traceIDValue, exists := c.Get("TraceID"); exists {
			traceID = traceIDValue.(string)
		}

		switch e := err.(type) {
		case AppError:
			writeAppError(c, e, traceID)
		case *AppError:
			writeAppError(c, *e, traceID)
		default:
			log.WithFields(logrus.Fields{
				FieldTraceID: traceID,
				FieldPath:    c.Request.URL.Path,
			}).Error(err.Error())

			errResp := model.NewErrorResponse(
				http.StatusInternalServerError,
				"Internal server error",
			)
			errResp.TraceID = traceID
			if gin.Mode() == gin.DebugMode {
				errResp.Message = err.Error()
			}

			c.JSON(http.StatusInternalServerError, errResp)
		}

		c.Abort()
	}
}

func writeAppError(c *gin.Context, e AppError, traceID string) {
	log.WithFields(logrus.Fields{
		"error_type": e.Type,
		FieldTraceID: traceID,
		FieldPath:    c.Request.URL.Path,
	}).Error(e.Message)

	errResp := model.NewErrorResponse(e.Code, e.Message)
	errResp.TraceID = traceID

	c.JSON(e.Code, errResp)
}

// HandleError attaches an error to the request for ErrorMiddleware to render.
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)
}
