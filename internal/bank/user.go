package bank

import (
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

var (
	emailPattern    = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,6}$`)
	nonDigitPattern = regexp.MustCompile(`\D`)
)

// ValidEmail loosely checks {user}@{domain}.{tld} shape.
func ValidEmail(email string) bool { return emailPattern.MatchString(email) }

// ValidPhone accepts any formatting as long as 7 to 15 digits remain.
func ValidPhone(phone string) bool {
	digits := nonDigitPattern.ReplaceAllString(phone, "")
	return len(digits) >= 7 && len(digits) <= 15
}

// ValidPassword requires at least 8 characters with one uppercase letter,
// one lowercase letter, one digit and one symbol.
func ValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

// User owns accounts and authenticates with a bcrypt password hash. The
// raw password never persists.
type User struct {
	id          string
	name        string
	surname     string
	dateOfBirth time.Time

	mu           sync.Mutex
	email        string
	phone        string
	passwordHash []byte
	accounts     []*Account
	questions    map[string]string
}

// NewUser validates email, phone and password policy before creating the
// user; the password is stored hashed.
func NewUser(id, name, surname string, dateOfBirth time.Time, email, phone, password string) (*User, error) {
	if !ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}
	u := &User{
		id:          id,
		name:        name,
		surname:     surname,
		dateOfBirth: dateOfBirth,
		email:       email,
		phone:       phone,
		questions:   make(map[string]string),
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) ID() string              { return u.id }
func (u *User) Name() string            { return u.name }
func (u *User) Surname() string         { return u.surname }
func (u *User) DateOfBirth() time.Time  { return u.dateOfBirth }

func (u *User) Email() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.email
}

func (u *User) Phone() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.phone
}

func (u *User) SetEmail(email string) error {
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.email = email
	return nil
}

func (u *User) SetPhone(phone string) error {
	if !ValidPhone(phone) {
		return ErrInvalidPhone
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.phone = phone
	return nil
}

// SetPassword enforces the policy, then stores a bcrypt hash.
func (u *User) SetPassword(password string) error {
	if !ValidPassword(password) {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.passwordHash = hash
	return nil
}

// CheckPassword verifies a candidate password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	u.mu.Lock()
	hash := u.passwordHash
	u.mu.Unlock()
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// AddAccount attaches an account owned by this user.
func (u *User) AddAccount(a *Account) bool {
	if a == nil {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, held := range u.accounts {
		if held.Same(a) {
			return true
		}
	}
	u.accounts = append(u.accounts, a)
	return true
}

// RemoveAccount detaches an account. Returns false when absent.
func (u *User) RemoveAccount(a *Account) bool {
	if a == nil {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, held := range u.accounts {
		if held.Same(a) {
			u.accounts = append(u.accounts[:i], u.accounts[i+1:]...)
			return true
		}
	}
	return false
}

func (u *User) Accounts() []*Account {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]*Account, len(u.accounts))
	copy(out, u.accounts)
	return out
}

// AddSecurityQuestion registers a question and its expected answer.
func (u *User) AddSecurityQuestion(question, answer string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.questions[question] = answer
}

// VerifySecurityAnswer compares case-insensitively with surrounding
// whitespace ignored.
func (u *User) VerifySecurityAnswer(question, answer string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	expected, ok := u.questions[question]
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(answer))
}
