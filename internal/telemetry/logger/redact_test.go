package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactSensitive_Keys(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Output: &buf})

	l.Info("config",
		"rcon_password", "hunter2",
		"api_token", "abc",
		"empty_secret", "",
		"world_dir", "/srv/world",
	)

	entry := decode(t, &buf)
	if entry["rcon_password"] != redactedValue || entry["api_token"] != redactedValue {
		t.Errorf("sensitive keys not redacted: %v", entry)
	}
	if entry["empty_secret"] != "" {
		t.Errorf("empty value should stay empty, got %v", entry["empty_secret"])
	}
	if entry["world_dir"] != "/srv/world" {
		t.Errorf("world_dir = %v", entry["world_dir"])
	}
}

func TestRedactSensitive_EnvValues(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Output: &buf})

	l.Info("spawn",
		"entry", "RCON_PASSWORD=hunter2",
		"env", []string{"JAVA_HOME=/opt/java", "SECRET_KEY=s3"},
	)

	out := buf.String()
	if strings.Contains(out, "hunter2") || strings.Contains(out, "s3\"") {
		t.Errorf("secret leaked: %s", out)
	}
	if !strings.Contains(out, "JAVA_HOME=/opt/java") {
		t.Errorf("plain env entry missing: %s", out)
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	a := redactSensitive(slog.Group("process", slog.String("token", "x"), slog.String("command", "java")))
	attrs := a.Value.Group()
	if attrs[0].Value.String() != redactedValue {
		t.Errorf("grouped token = %q", attrs[0].Value.String())
	}
	if attrs[1].Value.String() != "java" {
		t.Errorf("grouped command = %q", attrs[1].Value.String())
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"RCON_PASSWORD=hunter2", "RCON_PASSWORD=" + redactedValue},
		{"JAVA_HOME=/opt/java", "JAVA_HOME=/opt/java"},
		{"TOKEN=", "TOKEN="},
		{"plain text", "plain text"},
		{"a key phrase=value", "a key phrase=value"},
	}
	for _, tt := range tests {
		if got := RedactString(tt.in); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsSensitiveKey(t *testing.T) {
	for _, k := range []string{"password", "API_KEY", "AuthHeader", "client_secret"} {
		if !IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = false", k)
		}
	}
	for _, k := range []string{"snapshot", "world_dir", "pid"} {
		if IsSensitiveKey(k) {
			t.Errorf("IsSensitiveKey(%q) = true", k)
		}
	}
}
