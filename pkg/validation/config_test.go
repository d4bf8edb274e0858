package validation

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_Checks(t *testing.T) {
	tests := []struct {
		name  string
		apply func(cv *ConfigValidator)
		fails bool
	}{
		{"required empty", func(cv *ConfigValidator) { cv.Required("Name", "") }, true},
		{"required set", func(cv *ConfigValidator) { cv.Required("Name", "x") }, false},
		{"positive zero", func(cv *ConfigValidator) { cv.Positive("Port", 0) }, true},
		{"positive one", func(cv *ConfigValidator) { cv.Positive("Port", 1) }, false},
		{"non-negative", func(cv *ConfigValidator) { cv.NonNegative("Levels", -1) }, true},
		{"range low", func(cv *ConfigValidator) { cv.RangeInt("Port", 0, 1, 65535) }, true},
		{"range high", func(cv *ConfigValidator) { cv.RangeInt("Port", 70000, 1, 65535) }, true},
		{"range ok", func(cv *ConfigValidator) { cv.RangeInt("Port", 8080, 1, 65535) }, false},
		{"duration short", func(cv *ConfigValidator) { cv.MinDuration("TTL", time.Millisecond, time.Second) }, true},
		{"duration ok", func(cv *ConfigValidator) { cv.MinDuration("TTL", time.Minute, time.Second) }, false},
		{"length short", func(cv *ConfigValidator) { cv.MinLength("Secret", "abc", 32) }, true},
		{"one of", func(cv *ConfigValidator) { cv.OneOf("Level", "trace", []string{"debug", "info"}) }, true},
		{"one of ok", func(cv *ConfigValidator) { cv.OneOf("Level", "info", []string{"debug", "info"}) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := NewConfigValidator("TestConfig")
			tt.apply(cv)
			if cv.HasErrors() != tt.fails {
				t.Errorf("HasErrors = %v, want %v (%v)", cv.HasErrors(), tt.fails, cv.Errors())
			}
		})
	}
}

func TestConfigValidator_When(t *testing.T) {
	cv := NewConfigValidator("TestConfig")
	cv.When(false, func(cv *ConfigValidator) { cv.Required("Skipped", "") })
	if cv.HasErrors() {
		t.Error("When(false) should not run validations")
	}

	cv.When(true, func(cv *ConfigValidator) { cv.Required("Checked", "") })
	if !cv.HasErrors() {
		t.Error("When(true) should run validations")
	}
}

func TestConfigValidator_CollectsAllErrors(t *testing.T) {
	err := NewConfigValidator("Server").
		Positive("Port", 0).
		Required("Host", "").
		RangeInt("MaxLevels", 500, 0, 100).
		Validate()

	if err == nil {
		t.Fatal("expected an error")
	}
	for _, want := range []string{"Server.Port", "Server.Host", "Server.MaxLevels"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}

	if err := NewConfigValidator("Server").Positive("Port", 80).Validate(); err != nil {
		t.Errorf("valid config: %v", err)
	}
}
