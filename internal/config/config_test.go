package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.OTPWindow != 20*time.Minute {
		t.Fatalf("OTPWindow = %s, want 20m", cfg.OTPWindow)
	}
	if cfg.ActiveWindow != 24*time.Hour {
		t.Fatalf("ActiveWindow = %s, want 24h", cfg.ActiveWindow)
	}
	if cfg.OTPLength != 6 {
		t.Fatalf("OTPLength = %d, want 6", cfg.OTPLength)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OTP_WINDOW", "5m")
	t.Setenv("OTP_LENGTH", "8")
	t.Setenv("HTTP_PORT", "9999")

	cfg := Load()
	if cfg.OTPWindow != 5*time.Minute {
		t.Fatalf("OTPWindow = %s, want 5m", cfg.OTPWindow)
	}
	if cfg.OTPLength != 8 {
		t.Fatalf("OTPLength = %d, want 8", cfg.OTPLength)
	}
	if cfg.HTTPPort != "9999" {
		t.Fatalf("HTTPPort = %s, want 9999", cfg.HTTPPort)
	}
}

func TestBadDurationFallsBack(t *testing.T) {
	t.Setenv("OTP_WINDOW", "twenty minutes")
	cfg := Load()
	if cfg.OTPWindow != 20*time.Minute {
		t.Fatalf("OTPWindow = %s, want fallback 20m", cfg.OTPWindow)
	}
}
