package bot

import "testing"

func TestGetIdentitySyntheticFallback(t *testing.T) {
	// No pool loaded in this test binary, so the synthetic fallback applies.
	id := GetIdentity(0)
	if id.UserID != "bot-0" {
		t.Fatalf("user id = %s, want bot-0", id.UserID)
	}
	if id.DisplayName == "" {
		t.Fatalf("expected a display name for the fallback identity")
	}
}

func TestRandomIdentitySyntheticFallback(t *testing.T) {
	id := RandomIdentity()
	if !IsBot(id.UserID) {
		t.Fatalf("user id = %s, want a bot id", id.UserID)
	}
	if id.DisplayName == "" {
		t.Fatalf("expected a display name for the fallback identity")
	}
}

func TestGetDisplayName(t *testing.T) {
	if name := GetDisplayName("bot-7"); name == "" {
		t.Fatalf("expected a fallback display name for a synthetic bot id")
	}
	if name := GetDisplayName("user-1"); name != "" {
		t.Fatalf("display name for a human = %q, want empty", name)
	}
}

func TestIsBotRecognizesSyntheticIds(t *testing.T) {
	tests := []struct {
		userID string
		want   bool
	}{
		{"bot-0", true},
		{"bot-12ab", true},
		{"user-1", false},
		{"bot", false},
		{"", false},
	}

	for _, test := range tests {
		if got := IsBot(test.userID); got != test.want {
			t.Fatalf("IsBot(%q) = %t, want %t", test.userID, got, test.want)
		}
	}
}
