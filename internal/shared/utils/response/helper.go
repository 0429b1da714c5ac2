package response

import "github.com/gin-gonic/gin"

// RespondJSON writes an Envelope with the given HTTP code. status is
// "success" or "error"; data and errors are mutually exclusive in
// practice but the envelope does not enforce that.
func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, Envelope{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}
