package errors

import "fmt"

var (
	ErrHandshake          = fmt.Errorf("websocket handshake rejected")
	ErrSendFailed         = fmt.Errorf("send to member failed")
	ErrLogWrite           = fmt.Errorf("chat log write failed")
	ErrEmptyCensoredWords = fmt.Errorf("no censored words have been found")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)
