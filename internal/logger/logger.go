// Package logger оборачивает logrus и даёт каждому сервису свой логгер с полем service.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger логгер сервиса
type Logger struct {
	*logrus.Entry
}

// New создаёт логгер с уровнем level ("debug", "info", ...) и форматом format ("json" или "text")
func New(service, level, format string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{Entry: base.WithField("service", service)}
}

// NewDefault логгер с уровнем info в текстовом формате
func NewDefault(service string) *Logger {
	return New(service, "info", "text")
}

// Discard логгер, который ничего не пишет (для тестов)
func Discard() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{Entry: base.WithField("service", "test")}
}

// Named возвращает логгер того же вывода для другого сервиса
func (l *Logger) Named(service string) *Logger {
	return &Logger{Entry: l.Entry.WithField("service", service)}
}
