package logger

import (
	"testing"
)

func TestNewConsoleAndJSON(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := New("test")
	if l == nil {
		t.Fatal("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")

	t.Setenv("APP_ENV", "production")
	if l = New("test"); l == nil {
		t.Fatal("nil logger")
	}
	l.Infof("info")
}
