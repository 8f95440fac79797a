package response

import (
	"net/http"

	"VoiceShelf/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Body is the envelope every API handler answers with.
type Body struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

func Success(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusOK, Body{Code: http.StatusOK, Msg: msg, Data: data})
}

func Created(c *gin.Context, msg string, data any) {
	c.JSON(http.StatusCreated, Body{Code: http.StatusCreated, Msg: msg, Data: data})
}

// Fail aborts with 400.
func Fail(c *gin.Context, msg string, data any) {
	AbortWithStatus(c, http.StatusBadRequest, msg, data)
}

func AbortWithStatus(c *gin.Context, status int, msg string, data any) {
	c.AbortWithStatusJSON(status, Body{Code: status, Msg: msg, Data: data})
}

// AbortWithError uses the code carried by err, 500 when it has none.
func AbortWithError(c *gin.Context, err error, msg string, data any) {
	status := errors.GetCode(err)
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	_ = c.Error(err)
	AbortWithStatus(c, status, msg, data)
}
