package logging

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize(\"\") error = %v", err)
	}

	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be silent when no level is configured")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize(\"\") error = %v", err)
	}

	core := GetLogger().Core()
	if !core.Enabled(zapcore.WarnLevel) {
		t.Error("warn level should be enabled")
	}
	if core.Enabled(zapcore.InfoLevel) {
		t.Error("info level should be disabled")
	}
}

func TestInitialize_UnknownLevel(t *testing.T) {
	if err := Initialize("chatty"); err == nil {
		t.Error("Initialize(\"chatty\") should fail")
	}
}

func TestLogRoutedRequest(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogRoutedRequest("lan", "GET", "print-status", 200, 12*time.Millisecond, nil)
	LogRoutedRequest("lan", "POST", "print-file", 0, time.Second, errors.New("connection reset"))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries, want 2", len(entries))
	}

	if entries[0].Level != zapcore.DebugLevel {
		t.Errorf("success level = %v, want debug", entries[0].Level)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("failure level = %v, want warn", entries[1].Level)
	}
	if got := entries[1].ContextMap()["path"]; got != "print-file" {
		t.Errorf("path field = %v, want print-file", got)
	}
}

func TestLogProbeResult_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogProbeResult("192.168.1.5", errors.New("timeout"), time.Second)
	LogProbeResult("192.168.1.6", nil, 30*time.Millisecond)

	for _, entry := range logs.All() {
		if entry.Level != zapcore.DebugLevel {
			t.Errorf("probe log %q at %v, want debug", entry.Message, entry.Level)
		}
	}
}
