package logger

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// callerHook records the first call site outside logrus and this package,
// so log lines point at the caller instead of the logger wrapper.
type callerHook struct{}

func (h *callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *callerHook) Fire(entry *logrus.Entry) error {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(6, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !more {
			break
		}
		fn := frame.Function
		if strings.Contains(fn, "sirupsen/logrus") || strings.Contains(fn, "roxom_mm/internal/logger") {
			continue
		}
		entry.Data["caller"] = fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
		break
	}
	return nil
}
