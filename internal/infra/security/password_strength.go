package security

import (
	"fmt"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// StrengthPolicy is the bar a password must clear before it is hashed for the users
// store. Login never applies it; stored hashes are only compared.
type StrengthPolicy struct {
	MinLength  int
	MinClasses int
	// MinScore is a zxcvbn score between 0 and 4.
	MinScore int
}

// DefaultStrengthPolicy returns the policy used when seeding accounts.
func DefaultStrengthPolicy() StrengthPolicy {
	return StrengthPolicy{MinLength: 10, MinClasses: 3, MinScore: 3}
}

// WeakPasswordError names the first rule a password failed.
type WeakPasswordError struct {
	Code    string
	Message string
}

func (e *WeakPasswordError) Error() string { return e.Message }

// Check reports the first violated rule. userInputs such as the email or display name
// are penalised by the zxcvbn estimator.
func (p StrengthPolicy) Check(password string, userInputs ...string) error {
	if n := len([]rune(password)); n < p.MinLength {
		return &WeakPasswordError{
			Code:    "min_length",
			Message: fmt.Sprintf("password must be at least %d characters long", p.MinLength),
		}
	}

	if classes := characterClasses(password); classes < p.MinClasses {
		return &WeakPasswordError{
			Code:    "character_classes",
			Message: fmt.Sprintf("password must include at least %d character types", p.MinClasses),
		}
	}

	if p.MinScore > 0 {
		minScore := min(p.MinScore, 4)
		if zxcvbn.PasswordStrength(password, userInputs).Score < minScore {
			return &WeakPasswordError{
				Code:    "weak_password",
				Message: "password is too weak; choose a more complex value",
			}
		}
	}
	return nil
}

// characterClasses counts upper, lower, digit and symbol classes present.
func characterClasses(password string) int {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSymbol(r) || unicode.IsPunct(r):
			symbol = true
		}
	}

	n := 0
	for _, present := range []bool{upper, lower, digit, symbol} {
		if present {
			n++
		}
	}
	return n
}
