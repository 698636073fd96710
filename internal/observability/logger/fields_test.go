package logger

import (
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestFieldKeysAreFixed(t *testing.T) {
	cases := []struct {
		field zapcore.Field
		key   string
	}{
		{RequestID("r1"), "request_id"},
		{Status(200), "status"},
		{DurationMs(12), "duration_ms"},
		{Duration(3 * time.Second), "duration"},
		{Outcome("revoked"), "outcome"},
		{Component("cleanup"), "component"},
	}
	for _, c := range cases {
		if c.field.Key != c.key {
			t.Errorf("field key = %q, want %q", c.field.Key, c.key)
		}
	}
}

func TestDurationCarriesValue(t *testing.T) {
	// Duration lleva la key fija "duration": el valor es el único argumento.
	f := Duration(1500 * time.Millisecond)
	if f.Type != zapcore.DurationType {
		t.Fatalf("field type = %v, want duration", f.Type)
	}
	if time.Duration(f.Integer) != 1500*time.Millisecond {
		t.Fatalf("field value = %v", time.Duration(f.Integer))
	}
}
