package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		UserID:    1,
		Username:  "alice",
		Role:      "admin",
		SessionID: 3,
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got != ac {
		t.Errorf("AuthContext = %+v, want %+v", got, ac)
	}
	if UserID(ctx) != 1 {
		t.Errorf("UserID = %d, want 1", UserID(ctx))
	}
	if !IsAdmin(ctx) {
		t.Error("expected admin")
	}
}

func TestFromContextMissing(t *testing.T) {
	ctx := context.Background()
	if _, ok := FromContext(ctx); ok {
		t.Error("expected false for missing AuthContext")
	}
	if UserID(ctx) != 0 {
		t.Error("expected zero user id")
	}
	if IsAdmin(ctx) {
		t.Error("expected not admin")
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("hash should not equal the password")
	}
	if !CheckPassword(hash, "hunter2") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "hunter3") {
		t.Error("expected wrong password to fail")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("expected error for empty password")
	}
}
