package http

import (
	"github.com/gin-gonic/gin"
)

// Response codes carried in the "error" field. 0 means success.
const (
	codeOK        = 0
	codeMalformed = 1
	codeInternal  = 2
	codeUnauth    = 3

	codeInvalidRole      = 1000
	codeRegUsernameEmpty = 1001
	codeRegPasswordEmpty = 1002
	codeUsernameTaken    = 1003

	codeUsernameNotFound   = 1100
	codeLoginUsernameEmpty = 1101
	codeLoginPasswordEmpty = 1102
	codeAccountLocked      = 1103
	codeIncorrectPassword  = 1104
)

const (
	msgMalformed = "Malformed request body"
	msgInternal  = "Internal error"
	msgUnauth    = "Unauthorized"
)

// respond writes the uniform body {"error": code, "msg": msg, ...extra}.
func respond(c *gin.Context, status, code int, msg string, extra gin.H) {
	body := gin.H{"error": code, "msg": msg}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, status, code int, msg string) {
	respond(c, status, code, msg, nil)
}
