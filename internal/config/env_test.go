package config

import (
	"testing"
	"time"
)

func TestString(t *testing.T) {
	t.Setenv(EnvCamera, "  /dev/video2 ")
	if got := String(EnvCamera, "0"); got != "/dev/video2" {
		t.Errorf("String = %q, want /dev/video2", got)
	}

	t.Setenv(EnvCamera, "")
	if got := String(EnvCamera, "0"); got != "0" {
		t.Errorf("String with empty env = %q, want default", got)
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"valid", "15", 15},
		{"unset", "", 30},
		{"garbage", "fast", 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvFPS, tt.env)
			if got := Int(EnvFPS, 30); got != tt.want {
				t.Errorf("Int = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBool(t *testing.T) {
	t.Setenv(EnvSerial, "true")
	if !Bool(EnvSerial, false) {
		t.Error("Bool(true) = false")
	}

	t.Setenv(EnvSerial, "nope")
	if Bool(EnvSerial, false) {
		t.Error("invalid bool should fall back to default")
	}
}

func TestDuration(t *testing.T) {
	t.Setenv(EnvModelTimeout, "45s")
	if got := Duration(EnvModelTimeout, time.Minute); got != 45*time.Second {
		t.Errorf("Duration = %v, want 45s", got)
	}

	t.Setenv(EnvModelTimeout, "soon")
	if got := Duration(EnvModelTimeout, time.Minute); got != time.Minute {
		t.Errorf("invalid duration = %v, want default", got)
	}
}
