package bank

import (
	"errors"
	"testing"
	"time"
)

func testUser(t *testing.T) *User {
	t.Helper()
	u, err := NewUser("user-1", "Ann", "Smith",
		time.Date(1990, time.March, 5, 0, 0, 0, 0, time.UTC),
		"ann@example.com", "+1 (555) 123-4567", "Str0ng!Pass")
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	return u
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"ann@example.com", true},
		{"ANN.SMITH+tag@sub.example.org", true},
		{"ann@example", false},
		{"@example.com", false},
		{"ann@example.toolongtld", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidEmail(tt.email); got != tt.ok {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.email, got, tt.ok)
		}
	}
}

func TestValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		ok    bool
	}{
		{"+1 (555) 123-4567", true},
		{"1234567", true},
		{"123456", false},
		{"123456789012345", true},
		{"1234567890123456", false},
		{"phone", false},
	}
	for _, tt := range tests {
		if got := ValidPhone(tt.phone); got != tt.ok {
			t.Errorf("ValidPhone(%q) = %v, want %v", tt.phone, got, tt.ok)
		}
	}
}

func TestValidPassword(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"Str0ng!Pass", true},
		{"short1!A", true},
		{"S1!a", false},              // too short
		{"alllower1!", false},        // no uppercase
		{"ALLUPPER1!", false},        // no lowercase
		{"NoDigits!!", false},        // no digit
		{"NoSymbols11", false},       // no symbol
	}
	for _, tt := range tests {
		if got := ValidPassword(tt.password); got != tt.ok {
			t.Errorf("ValidPassword(%q) = %v, want %v", tt.password, got, tt.ok)
		}
	}
}

func TestNewUserValidation(t *testing.T) {
	dob := time.Date(1990, time.March, 5, 0, 0, 0, 0, time.UTC)
	if _, err := NewUser("u", "A", "B", dob, "bad-email", "1234567", "Str0ng!Pass"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("want ErrInvalidEmail, got %v", err)
	}
	if _, err := NewUser("u", "A", "B", dob, "a@b.com", "123", "Str0ng!Pass"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("want ErrInvalidPhone, got %v", err)
	}
	if _, err := NewUser("u", "A", "B", dob, "a@b.com", "1234567", "weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("want ErrWeakPassword, got %v", err)
	}
}

func TestUserPassword(t *testing.T) {
	u := testUser(t)
	if !u.CheckPassword("Str0ng!Pass") {
		t.Fatal("correct password rejected")
	}
	if u.CheckPassword("Wrong!Pass1") {
		t.Fatal("wrong password accepted")
	}
	if err := u.SetPassword("weak"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("want ErrWeakPassword, got %v", err)
	}
	// A rejected change keeps the old hash working.
	if !u.CheckPassword("Str0ng!Pass") {
		t.Fatal("old password lost after rejected change")
	}
	if err := u.SetPassword("N3w!Passw0rd"); err != nil {
		t.Fatal(err)
	}
	if !u.CheckPassword("N3w!Passw0rd") || u.CheckPassword("Str0ng!Pass") {
		t.Fatal("password rotation broken")
	}
}

func TestUserContactUpdates(t *testing.T) {
	u := testUser(t)
	if err := u.SetEmail("not-an-email"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("want ErrInvalidEmail, got %v", err)
	}
	if u.Email() != "ann@example.com" {
		t.Fatal("email changed after rejected update")
	}
	if err := u.SetEmail("new@example.com"); err != nil {
		t.Fatal(err)
	}
	if u.Email() != "new@example.com" {
		t.Fatal("email not updated")
	}
	if err := u.SetPhone("12"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("want ErrInvalidPhone, got %v", err)
	}
	if err := u.SetPhone("555 000 1111"); err != nil {
		t.Fatal(err)
	}
	if u.Phone() != "555 000 1111" {
		t.Fatal("phone not updated")
	}
}

func TestUserAccounts(t *testing.T) {
	u := testUser(t)
	a := testAccount(t, "acc-1", "0")
	b := testAccount(t, "acc-2", "0")

	if !u.AddAccount(a) || !u.AddAccount(b) {
		t.Fatal("AddAccount failed")
	}
	if u.AddAccount(a) != true {
		t.Fatal("re-adding a held account should succeed")
	}
	if got := len(u.Accounts()); got != 2 {
		t.Fatalf("Accounts() = %d entries, want 2", got)
	}
	if !u.RemoveAccount(a) {
		t.Fatal("RemoveAccount failed")
	}
	if u.RemoveAccount(a) {
		t.Fatal("double remove should report absence")
	}
	if got := u.Accounts(); len(got) != 1 || !got[0].Same(b) {
		t.Fatalf("Accounts() = %v", got)
	}
}

func TestSecurityQuestions(t *testing.T) {
	u := testUser(t)
	u.AddSecurityQuestion("First pet?", "Rex")

	if !u.VerifySecurityAnswer("First pet?", "  rex ") {
		t.Fatal("case and whitespace should be ignored")
	}
	if u.VerifySecurityAnswer("First pet?", "Fido") {
		t.Fatal("wrong answer accepted")
	}
	if u.VerifySecurityAnswer("First car?", "Rex") {
		t.Fatal("unknown question accepted")
	}
}
