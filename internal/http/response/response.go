// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Сообщения для покупателя
// и администратора пишутся на тайском, логи остаются на английском.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status - статус запроса ("OK" или "Error").
// Поле Error - текст ошибки (опционально, при неуспехе).
// Поле Data - данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse - структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"ข้อมูลคำขอไม่ถูกต้อง"`
}

const (
	// StatusOK - значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError - значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Общие сообщения об ошибках.
const (
	MsgInternal       = "เกิดข้อผิดพลาดในระบบ กรุณาลองใหม่อีกครั้ง"
	MsgInvalidRequest = "ข้อมูลคำขอไม่ถูกต้อง"
	MsgNotFound       = "ไม่พบข้อมูลที่ต้องการ"
	MsgForbidden      = "คุณไม่มีสิทธิ์เข้าถึงข้อมูลนี้"
	MsgTooManyRequest = "มีการส่งคำขอมากเกินไป กรุณารอสักครู่"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение превращается в текст на тайском, тексты объединяются через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("กรุณากรอก %s", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, "รูปแบบอีเมลไม่ถูกต้อง")
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("%s ต้องมีอย่างน้อย %s ตัวอักษร", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("%s ต้องไม่เกิน %s ตัวอักษร", err.Field(), err.Param()))
		case "eqfield":
			errsMsgs = append(errsMsgs, "รหัสผ่านไม่ตรงกัน")
		case "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("%s ต้องไม่น้อยกว่า %s", err.Field(), err.Param()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("%s ต้องเป็น uuid", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("%s ต้องเป็นหนึ่งใน %s", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("%s ไม่ถูกต้อง", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
