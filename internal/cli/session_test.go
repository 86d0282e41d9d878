package cli

import "testing"

func TestSessionRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := LoadSession(); err == nil {
		t.Fatal("loading a session before saving one should fail")
	}

	want := Session{LobbyCode: "AB12C", CompanyName: "Acme"}
	if err := SaveSession(want); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := LoadSession()
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got != want {
		t.Errorf("LoadSession = %+v, want %+v", got, want)
	}

	if err := ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, err := LoadSession(); err == nil {
		t.Error("session should be gone after ClearSession")
	}
	// Clearing twice is a no-op.
	if err := ClearSession(); err != nil {
		t.Errorf("second ClearSession: %v", err)
	}
}

func TestLoadSessionRejectsEmptyLobby(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := SaveSession(Session{Host: "host"}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if _, err := LoadSession(); err == nil {
		t.Error("session without a lobby code should be rejected")
	}
}
