// Package response содержит вспомогательные типы и функции для формирования
// JSON‑ответов HTTP‑обработчиков. API отдаёт два вида тел: {"message": ...}
// для auth и admin маршрутов и {"error": ...} для маршрутов Drive.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// MessageResponse тело ответа с текстом для пользователя.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse тело ответа health-check.
type StatusResponse struct {
	Status string `json:"status"`
}

// StatusOK значение статуса для успешного health-check.
const StatusOK = "OK"

// Message возвращает MessageResponse с переданным текстом.
func Message(msg string) MessageResponse {
	return MessageResponse{Message: msg}
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

// ValidationMessage формирует человеко‑читаемый текст из ошибок валидации.
// Нарушения объединяются через запятую.
func ValidationMessage(errs validator.ValidationErrors) string {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email address", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", err.Field(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return strings.Join(errsMsgs, ", ")
}
