package errors

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Common errors
var (
	ErrNotFound       = errors.New("ресурс не найден")
	ErrConflict       = errors.New("конфликт состояния")
	ErrUnauthorized   = errors.New("не авторизован")
	ErrForbidden      = errors.New("доступ запрещен")
	ErrInternalServer = errors.New("внутренняя ошибка сервера")
	ErrBadRequest     = errors.New("некорректный запрос")
)

// Is и As повторяют стандартные, чтобы пакет можно было импортировать вместо errors
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

// AppendPrefix добавляет префикс к сообщению об ошибке
func AppendPrefix(err error, prefix string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", prefix, err)
}

// LogError логирует ошибку с контекстом через глобальный логгер
func LogError(err error, context string, fields ...zap.Field) {
	if err == nil {
		return
	}
	zap.L().Error("ОШИБКА", append([]zap.Field{zap.String("context", context), zap.Error(err)}, fields...)...)
}

// ErrorGroup собирает ошибки нескольких независимых операций
type ErrorGroup struct {
	errors []error
}

// NewErrorGroup создает новую группу ошибок
func NewErrorGroup() *ErrorGroup {
	return &ErrorGroup{
		errors: make([]error, 0),
	}
}

// Add добавляет ошибку в группу (игнорирует nil)
func (g *ErrorGroup) Add(err error) {
	if err != nil {
		g.errors = append(g.errors, err)
	}
}

// AddPrefix добавляет ошибку с префиксом в группу
func (g *ErrorGroup) AddPrefix(err error, prefix string) {
	if err != nil {
		g.errors = append(g.errors, AppendPrefix(err, prefix))
	}
}

func (g *ErrorGroup) HasErrors() bool {
	return len(g.errors) > 0
}

// Err возвращает nil для пустой группы
func (g *ErrorGroup) Err() error {
	if !g.HasErrors() {
		return nil
	}
	return g
}

func (g *ErrorGroup) Error() string {
	var sb strings.Builder
	for i, err := range g.errors {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap позволяет errors.Is находить ошибки внутри группы
func (g *ErrorGroup) Unwrap() []error {
	return g.errors
}
