package security

import (
	"strings"
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"

	"github.com/arklim/social-platform-accounts/internal/core/domain"
)

const (
	// DefaultMinPasswordLength mirrors the framework default the service
	// historically shipped with.
	DefaultMinPasswordLength = 8

	similarityThreshold = 0.7

	passwordField = "password"
)

// PasswordRule checks a candidate password against one policy rule. A nil
// result means the rule passed; otherwise the returned violation carries a
// stable code.
type PasswordRule interface {
	Check(password string, ctx domain.PasswordContext) *domain.FieldError
}

// PasswordRuleFunc adapts a function to be used as a PasswordRule.
type PasswordRuleFunc func(password string, ctx domain.PasswordContext) *domain.FieldError

// Check executes the underlying rule function.
func (f PasswordRuleFunc) Check(password string, ctx domain.PasswordContext) *domain.FieldError {
	return f(password, ctx)
}

// PasswordValidator applies a sequence of password rules. Every rule runs and
// every violation is collected, so a caller can surface all problems at once.
type PasswordValidator struct {
	rules []PasswordRule
}

// NewPasswordValidator constructs a validator with the provided rules.
func NewPasswordValidator(rules ...PasswordRule) *PasswordValidator {
	copied := make([]PasswordRule, len(rules))
	copy(copied, rules)
	return &PasswordValidator{rules: copied}
}

// DefaultPasswordValidator returns the built-in rule chain: minimum length,
// similarity to identity fields, common-password blocklist, and all-numeric
// rejection.
func DefaultPasswordValidator(minLength int) *PasswordValidator {
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}
	return NewPasswordValidator(
		MinLengthRule(minLength),
		SimilarityRule(similarityThreshold),
		CommonPasswordRule(),
		NumericOnlyRule(),
	)
}

// Validate runs all rules and returns the collected violations. An empty
// slice means the password satisfies the policy.
func (v *PasswordValidator) Validate(password string, ctx domain.PasswordContext) []domain.FieldError {
	if v == nil {
		return nil
	}

	var violations []domain.FieldError
	for _, rule := range v.rules {
		if violation := rule.Check(password, ctx); violation != nil {
			violations = append(violations, *violation)
		}
	}
	return violations
}

// MinLengthRule rejects passwords shorter than min runes.
func MinLengthRule(min int) PasswordRule {
	return PasswordRuleFunc(func(password string, _ domain.PasswordContext) *domain.FieldError {
		if len([]rune(password)) < min {
			return &domain.FieldError{Field: passwordField, Code: domain.CodePasswordTooShort}
		}
		return nil
	})
}

// SimilarityRule rejects passwords too close to the account's identity
// fields. Each field value and each of its non-alphanumeric segments is
// compared against the password with a multiset similarity ratio.
func SimilarityRule(threshold float64) PasswordRule {
	return PasswordRuleFunc(func(password string, ctx domain.PasswordContext) *domain.FieldError {
		candidate := strings.ToLower(password)
		if candidate == "" {
			return nil
		}

		for _, value := range similarityInputs(ctx) {
			if similarityRatio(candidate, strings.ToLower(value)) >= threshold {
				return &domain.FieldError{Field: passwordField, Code: domain.CodePasswordTooSimilar}
			}
		}
		return nil
	})
}

// CommonPasswordRule rejects passwords that rank as trivially guessable in
// the zxcvbn frequency dictionaries.
func CommonPasswordRule() PasswordRule {
	return PasswordRuleFunc(func(password string, _ domain.PasswordContext) *domain.FieldError {
		if password == "" {
			return nil
		}
		if zxcvbn.PasswordStrength(password, nil).Score == 0 {
			return &domain.FieldError{Field: passwordField, Code: domain.CodePasswordTooCommon}
		}
		return nil
	})
}

// NumericOnlyRule rejects passwords consisting entirely of digits.
func NumericOnlyRule() PasswordRule {
	return PasswordRuleFunc(func(password string, _ domain.PasswordContext) *domain.FieldError {
		if password == "" {
			return nil
		}
		for _, r := range password {
			if !unicode.IsDigit(r) {
				return nil
			}
		}
		return &domain.FieldError{Field: passwordField, Code: domain.CodePasswordEntirelyNumeric}
	})
}

func similarityInputs(ctx domain.PasswordContext) []string {
	var inputs []string

	appendValue := func(value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		inputs = append(inputs, value)
		for _, part := range strings.FieldsFunc(value, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			if len(part) >= 3 {
				inputs = append(inputs, part)
			}
		}
	}

	appendValue(ctx.Username)
	appendValue(ctx.Email)

	return inputs
}

// similarityRatio computes 2*M/T where M is the size of the rune multiset
// intersection and T the total length of both strings. This matches the
// upper-bound ratio difflib reports and is cheap enough to run per field.
func similarityRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	countsA := make(map[rune]int)
	for _, r := range a {
		countsA[r]++
	}

	matches := 0
	total := 0
	countsB := make(map[rune]int)
	for _, r := range b {
		countsB[r]++
		total++
	}
	for r, n := range countsA {
		total += n
		if m := countsB[r]; m > 0 {
			if m < n {
				matches += m
			} else {
				matches += n
			}
		}
	}

	return 2 * float64(matches) / float64(total)
}
