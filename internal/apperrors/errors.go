// Package apperrors описывает виды ошибок доменного слоя и их отображение в HTTP-статусы.
package apperrors

import (
	"errors"

	"github.com/gofiber/fiber/v3"
)

// Kind вид доменной ошибки
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindForbidden       Kind = "forbidden"
	KindInvalidTrade    Kind = "invalid_trade"
	KindConflict        Kind = "conflict"
	KindInvalidArgument Kind = "invalid_argument"
	KindUnauthorized    Kind = "unauthorized"
)

// Sentinel-значения для errors.Is
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrInvalidTrade    = &Error{Kind: KindInvalidTrade}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
)

// Error доменная ошибка с видом и сообщением для клиента
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is сравнивает ошибки по виду
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func NotFound(msg string) error        { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) error       { return &Error{Kind: KindForbidden, Message: msg} }
func InvalidTrade(msg string) error    { return &Error{Kind: KindInvalidTrade, Message: msg} }
func Conflict(msg string) error        { return &Error{Kind: KindConflict, Message: msg} }
func InvalidArgument(msg string) error { return &Error{Kind: KindInvalidArgument, Message: msg} }
func Unauthorized(msg string) error    { return &Error{Kind: KindUnauthorized, Message: msg} }

// KindOf возвращает вид ошибки или пустую строку для неизвестных ошибок
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StatusCode отображает ошибку в HTTP-статус
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindInvalidTrade, KindInvalidArgument:
		return fiber.StatusBadRequest
	case KindConflict:
		return fiber.StatusConflict
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// Respond отправляет ошибку клиенту в виде {"error": "..."}.
// Текст внутренних ошибок наружу не отдаётся.
func Respond(c fiber.Ctx, err error) error {
	status := StatusCode(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "Внутренняя ошибка сервера"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
