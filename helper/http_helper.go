package helper

import (
	"github.com/gin-gonic/gin"

	"knowledge-base/models"
)

const (
	textError             = `error`
	textOk                = `ok`
	codeSuccess           = 200
	codeBadRequestError   = 400
	codeUnauthorizedError = 401
	codeForbiddenError    = 403
	codeNotFound          = 404
	codeConflictError     = 409
	codeValidationError   = 422
	codeUnavailableError  = 503
	codeInternalError     = 500
)

// ResponseHelper ...
type ResponseHelper struct {
	C        *gin.Context
	Status   string
	Message  string
	Data     interface{}
	Code     int // not the http code
	CodeType string
}

// HTTPHelper writes the JSON envelope used by the REST endpoints.
type HTTPHelper struct{}

// GetStatusCode maps an error kind onto an HTTP status.
func (u *HTTPHelper) GetStatusCode(err error) int {
	if err == nil {
		return codeSuccess
	}
	switch models.KindOf(err) {
	case models.KindAuthenticationRequired:
		return codeUnauthorizedError
	case models.KindAuthorizationDenied:
		return codeForbiddenError
	case models.KindValidationFailed:
		return codeValidationError
	case models.KindNotFound:
		return codeNotFound
	case models.KindConflictFailed:
		return codeConflictError
	case models.KindTransientStoreFailure:
		return codeUnavailableError
	default:
		return codeInternalError
	}
}

// SetResponse ...
// Set response data.
func (u *HTTPHelper) SetResponse(c *gin.Context, status string, message string, data interface{}, code int, codeType string) ResponseHelper {
	return ResponseHelper{c, status, message, data, code, codeType}
}

// SendError ...
// Send error response to consumers.
func (u *HTTPHelper) SendError(c *gin.Context, message string, data interface{}, code int, codeType string) {
	u.SendResponse(u.SetResponse(c, textError, message, data, code, codeType))
}

// SendAPIError sends a structured error using its kind for the status
// and code type.
func (u *HTTPHelper) SendAPIError(c *gin.Context, err error) {
	status := u.GetStatusCode(err)

	var data interface{} = u.EmptyJsonMap()
	codeType := string(models.KindOf(err))
	message := err.Error()
	if e, ok := err.(*models.Error); ok {
		message = e.Message
		if len(e.Fields) > 0 {
			data = e.Fields
		}
	}
	if codeType == "" {
		codeType = "internalError"
		message = "internal server error"
	}

	u.SendResponse(u.SetResponse(c, textError, message, data, status, codeType))
}

// SendBadRequest ...
// Send bad request response to consumers.
func (u *HTTPHelper) SendBadRequest(c *gin.Context, message string, data interface{}) {
	u.SendError(c, message, data, codeBadRequestError, `badRequest`)
}

// SendUnauthorizedError ...
// Send unauthorized response to consumers.
func (u *HTTPHelper) SendUnauthorizedError(c *gin.Context, message string, data interface{}) {
	u.SendError(c, message, data, codeUnauthorizedError, `unAuthorized`)
}

// SendSuccess ...
// Send success response to consumers.
func (u *HTTPHelper) SendSuccess(c *gin.Context, message string, data interface{}) {
	u.SendResponse(u.SetResponse(c, textOk, message, data, codeSuccess, `success`))
}

// SendResponse writes the envelope. Code doubles as the HTTP status.
func (u *HTTPHelper) SendResponse(res ResponseHelper) {
	if len(res.Message) == 0 {
		res.Message = `success`
	}

	status := res.Code
	if status < 100 || status > 599 {
		status = codeInternalError
	}

	res.C.JSON(status, map[string]interface{}{
		"code":         res.Code,
		"code_type":    res.CodeType,
		"code_message": res.Message,
		"data":         res.Data,
	})
}

func (u *HTTPHelper) EmptyJsonMap() map[string]interface{} {
	return make(map[string]interface{})
}
