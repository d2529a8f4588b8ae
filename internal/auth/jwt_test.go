package auth

import (
	"testing"
	"time"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.GenerateDeviceToken("device-123")
	if err != nil {
		t.Fatalf("GenerateDeviceToken() error = %v", err)
	}

	claims, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.DeviceID != "device-123" {
		t.Errorf("DeviceID = %s, want device-123", claims.DeviceID)
	}
	if claims.Role != "device" {
		t.Errorf("Role = %s, want device", claims.Role)
	}
}

func TestTokenIssuer_RejectsForeignSecret(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", time.Hour)
	other := NewTokenIssuer("secret-b", time.Hour)

	token, err := issuer.GenerateDeviceToken("device-123")
	if err != nil {
		t.Fatalf("GenerateDeviceToken() error = %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("ValidateToken() with a different secret expected error")
	}
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	if _, err := issuer.ValidateToken("not-a-token"); err == nil {
		t.Error("ValidateToken() of garbage expected error")
	}
}

func TestTokenIssuer_DefaultTTL(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 0)
	if issuer.TTL() != 24*time.Hour {
		t.Errorf("TTL() = %s, want 24h", issuer.TTL())
	}
}
