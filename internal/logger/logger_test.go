package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestGet_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	root.SetOutput(&buf)
	defer root.SetOutput(nil)

	Get("test_component").Info("hello")

	out := buf.String()
	if !strings.Contains(out, "component=test_component") {
		t.Errorf("expected component field in output, got: %s", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("expected message in output, got: %s", out)
	}
}

func TestSetup_Level(t *testing.T) {
	Setup("debug", "")
	if root.GetLevel() != logrus.DebugLevel {
		t.Errorf("expected debug level, got %v", root.GetLevel())
	}
	Setup("info", "")
	if root.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected info level, got %v", root.GetLevel())
	}
	// Invalid level leaves the previous one in place
	Setup("bogus", "")
	if root.GetLevel() != logrus.InfoLevel {
		t.Errorf("invalid level should not change anything, got %v", root.GetLevel())
	}
}
