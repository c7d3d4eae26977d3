// Package logging 提供 Logger 接口抽象，底层使用 logrus
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Debugf(format string, args ...any)
	Debug(args ...any)
	Infof(format string, args ...any)
	Info(args ...any)
	Warningf(format string, args ...any)
	Warning(args ...any)
	Errorf(format string, args ...any)
	Error(args ...any)
	WithField(key string, value any) *logrus.Entry
	WithFields(fields logrus.Fields) *logrus.Entry
}

type logger struct {
	*logrus.Logger
}

func New(w io.Writer, level logrus.Level) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.Formatter = &logrus.TextFormatter{
		FullTimestamp: true,
	}
	return &logger{Logger: l}
}

// Wrap 使用一个已有的 logrus.Logger (测试里配合 hooks/test 使用)
func Wrap(l *logrus.Logger) Logger {
	return &logger{Logger: l}
}

// ParseLevel 接受 "debug" / "info" / "warn" 等，空字符串视为 info
func ParseLevel(s string) (logrus.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return logrus.InfoLevel, nil
	}
	return logrus.ParseLevel(s)
}

// Noop 丢弃所有日志
func Noop() Logger {
	return New(io.Discard, logrus.PanicLevel)
}
