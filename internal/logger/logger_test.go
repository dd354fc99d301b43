package logger

import (
	"bytes"
	"sync"
	"testing"
)

func TestSetVerbose(t *testing.T) {
	l := New(nil, false)

	if l.IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	l.SetVerbose(true)
	if !l.IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}

	l.SetVerbose(false)
	if l.IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	l.Debug("test message %s", "arg")

	if buf.String() != "[DEBUG] test message arg\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.Debug("test message")
	l.Info("test message")

	if buf.Len() > 0 {
		t.Error("expected no output when verbose is disabled")
	}
}

func TestWarnAndError_AlwaysWritten(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)

	l.Warn("careful %d", 1)
	l.Error("broken")

	expected := "[WARN] careful 1\n[ERROR] broken\n"
	if buf.String() != expected {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestSection(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	l.Section("Read")

	if buf.String() != "\n=== Read ===\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestNamed(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true).Named("sqlite").Named("objects")

	l.Info("opened %s", "db")

	if buf.String() != "[INFO] sqlite/objects: opened db\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestNilLogger_DoesNotPanic(t *testing.T) {
	var l *Logger
	l.Debug("x")
	l.Warn("x")
	l.Section("x")
	if l.Named("x") != nil {
		t.Error("expected nil child from nil logger")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Warn("discarded")
	if l.IsVerbose() {
		t.Error("expected nop logger to be quiet")
	}
}

func TestConcurrentWrites(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l.SetVerbose(true)
			l.Debug("message %d", n)
		}(i)
	}
	wg.Wait()
}
