package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Body is the uniform envelope used for both success and failure
// responses. Status is "SUCCESS" or "FAIL"; Code follows the
// domain-prefixed scheme (Sxxx system, Cxxx client, Axxx auth).
type Body struct {
	Status      string      `json:"status"`
	Code        string      `json:"code"`
	Message     string      `json:"message"`
	Data        interface{} `json:"data"`
	Description string      `json:"description,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Code couples a response code with its default message and the HTTP
// status it implies.
type Code struct {
	Code    string
	Message string
	HTTP    int
}

var (
	// System (Sxxx)
	Success = Code{"S000", "request processed successfully", http.StatusOK}
	Error   = Code{"S001", "internal server error", http.StatusInternalServerError}

	// Client (Cxxx)
	InvalidRequest   = Code{"C001", "invalid request", http.StatusBadRequest}
	MissingParameter = Code{"C002", "required parameter is missing", http.StatusBadRequest}
	ValidationError  = Code{"C003", "input validation failed", http.StatusBadRequest}
	NotFound         = Code{"C004", "requested resource not found", http.StatusNotFound}

	// Auth (Axxx)
	Unauthorized  = Code{"A001", "authentication required", http.StatusUnauthorized}
	Forbidden     = Code{"A002", "access denied", http.StatusForbidden}
	TokenExpired  = Code{"A003", "authentication token has expired", http.StatusUnauthorized}
	LoginRequired = Code{"A004", "login required", http.StatusUnauthorized}
)

// OK writes the standard success envelope with the given payload.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{
		Status:    "SUCCESS",
		Code:      Success.Code,
		Message:   Success.Message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// Fail writes the failure envelope for the given code. The optional
// description carries request-specific detail; the message stays fixed.
func Fail(c *gin.Context, code Code, description string) {
	c.JSON(code.HTTP, fail(code, description))
}

// AbortFail writes the failure envelope and terminates the handler
// chain so no downstream handler runs.
func AbortFail(c *gin.Context, code Code, description string) {
	c.AbortWithStatusJSON(code.HTTP, fail(code, description))
}

func fail(code Code, description string) Body {
	return Body{
		Status:      "FAIL",
		Code:        code.Code,
		Message:     code.Message,
		Description: description,
		Timestamp:   time.Now().UTC(),
	}
}
