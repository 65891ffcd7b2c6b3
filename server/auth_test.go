package main

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func init() {
	bcryptCost = bcrypt.MinCost
}

func TestRegisterAndLogin(t *testing.T) {
	db := openTestDB(t)
	a := NewAuth(db)

	reg, err := a.Register("  nova ", "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	id := reg.ID
	gotID, name, err := a.ValidateToken(reg.Token)
	if err != nil || gotID != id || name != "nova" {
		t.Errorf("ValidateToken = %d, %q, %v", gotID, name, err)
	}
	if !reg.LastLogin.IsZero() || reg.Class != ClassShuttle {
		t.Errorf("new pilot = %+v, want no previous login and the shuttle", reg)
	}

	if _, err := a.Register("nova", "secret"); err == nil {
		t.Error("duplicate username should be refused")
	}

	if _, err := a.Login("nova", "wrong", "1.2.3.4"); err != errBadCredentials {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := a.Login("ghost", "secret", "1.2.3.4"); err != errBadCredentials {
		t.Errorf("unknown pilot err = %v", err)
	}
	login, err := a.Login("nova", "secret", "1.2.3.4")
	if err != nil || login.ID != id || login.Token == "" {
		t.Errorf("Login = %+v, %v", login, err)
	}
	if login.LastLogin.IsZero() {
		t.Error("second sign-in should report the previous login")
	}
}

func TestLoginRestoresLastClass(t *testing.T) {
	db := openTestDB(t)
	a := NewAuth(db)
	reg, err := a.Register("orion", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SetPilotClass(reg.ID, ClassSpeedster); err != nil {
		t.Fatal(err)
	}

	login, err := a.Login("orion", "secret", "1.2.3.4")
	if err != nil || login.Class != ClassSpeedster {
		t.Errorf("Login class = %v, %v, want speedster", login.Class, err)
	}
	resumed, err := a.Resume(reg.Token)
	if err != nil || resumed.Class != ClassSpeedster || resumed.Username != "orion" {
		t.Errorf("Resume = %+v, %v", resumed, err)
	}
	if resumed.Token != reg.Token {
		t.Error("Resume should keep the presented token")
	}

	p, err := db.GetPilot(reg.ID)
	if err != nil || !p.LastLogin.Valid {
		t.Errorf("last login not stamped: %+v, %v", p, err)
	}
}

func TestResumeRejectsForeignToken(t *testing.T) {
	reg, err := NewAuth(openTestDB(t)).Register("cass", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewAuth(openTestDB(t)).Resume(reg.Token); err == nil {
		t.Error("token from another server should not resume")
	}
}

func TestRegisterValidation(t *testing.T) {
	a := NewAuth(openTestDB(t))
	tests := []struct {
		name, user, pass string
	}{
		{"short name", "x", "secret"},
		{"long name", "abcdefghijklmnopq", "secret"},
		{"short password", "pilot", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Register(tt.user, tt.pass); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoginRateLimit(t *testing.T) {
	a := NewAuth(openTestDB(t))
	for i := 0; i < maxLoginAttempts; i++ {
		a.Login("ghost", "pw", "9.9.9.9")
	}
	if _, err := a.Login("ghost", "pw", "9.9.9.9"); err == nil || err == errBadCredentials {
		t.Errorf("attempt past the limit err = %v, want rate limit", err)
	}
	if _, err := a.Login("ghost", "pw", "8.8.8.8"); err != errBadCredentials {
		t.Errorf("other addresses keep their own budget, err = %v", err)
	}
}

func TestSecretSurvivesRestart(t *testing.T) {
	db := openTestDB(t)
	reg, err := NewAuth(db).Register("echo", "secret")
	if err != nil {
		t.Fatal(err)
	}
	token := reg.Token
	if _, _, err := NewAuth(db).ValidateToken(token); err != nil {
		t.Errorf("token from a previous Auth should validate: %v", err)
	}
	if _, _, err := NewAuth(openTestDB(t)).ValidateToken(token); err == nil {
		t.Error("token signed with another secret should fail")
	}
	if _, _, err := NewAuth(db).ValidateToken(token + "x"); err == nil {
		t.Error("tampered token should fail")
	}
}
