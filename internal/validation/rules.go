package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/huxley-dev/account-be/internal/httpx"
)

// FieldError is a single validation failure, reported to the client inside
// the "errors" array of the response envelope.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Check is one predicate applied to a field value.
type Check struct {
	OK      func(string) bool
	Message string
}

// Rule is the ordered set of checks for one body field. Optional rules are
// skipped entirely when the field is absent or empty.
type Rule struct {
	Field    string
	Optional bool
	Trim     bool
	Checks   []Check
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[1-9][0-9]{0,15}$`)
)

func required(msg string) Check {
	return Check{OK: func(v string) bool { return v != "" }, Message: msg}
}

func length(min, max int, msg string) Check {
	return Check{OK: func(v string) bool {
		n := utf8.RuneCountInString(v)
		return n >= min && n <= max
	}, Message: msg}
}

func minLength(min int, msg string) Check {
	return Check{OK: func(v string) bool { return utf8.RuneCountInString(v) >= min }, Message: msg}
}

func maxLength(max int, msg string) Check {
	return Check{OK: func(v string) bool { return utf8.RuneCountInString(v) <= max }, Message: msg}
}

func pattern(re *regexp.Regexp, msg string) Check {
	return Check{OK: re.MatchString, Message: msg}
}

// passwordClasses requires at least one lowercase letter, one uppercase
// letter and one digit. Expressed as a scan because RE2 has no lookahead.
func passwordClasses(msg string) Check {
	return Check{OK: func(v string) bool {
		var lower, upper, digit bool
		for _, r := range v {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return lower && upper && digit
	}, Message: msg}
}

// Register is the rule set for POST /register.
var Register = []Rule{
	{Field: "firstName", Trim: true, Checks: []Check{
		required("First name is required"),
		length(2, 30, "First name must be between 2 and 30 characters"),
	}},
	{Field: "lastName", Trim: true, Checks: []Check{
		required("Last name is required"),
		length(2, 30, "Last name must be between 2 and 30 characters"),
	}},
	{Field: "email", Trim: true, Checks: []Check{
		pattern(emailRe, "Please enter a valid email"),
	}},
	{Field: "password", Checks: []Check{
		minLength(6, "Password must be at least 6 characters"),
		passwordClasses("Password must contain at least one uppercase letter, one lowercase letter, and one number"),
	}},
	{Field: "phone", Optional: true, Checks: []Check{
		pattern(phoneRe, "Please enter a valid phone number"),
	}},
	{Field: "bio", Optional: true, Checks: []Check{
		maxLength(500, "Bio cannot exceed 500 characters"),
	}},
	{Field: "position", Optional: true, Checks: []Check{
		maxLength(100, "Position cannot exceed 100 characters"),
	}},
}

// Login is the rule set for POST /login. Password gets a presence check
// only; its format was enforced at registration.
var Login = []Rule{
	{Field: "email", Trim: true, Checks: []Check{
		pattern(emailRe, "Please enter a valid email"),
	}},
	{Field: "password", Checks: []Check{
		required("Password is required"),
	}},
}

// ProfileUpdate is the rule set for PUT /profile. Every field is optional;
// present fields follow the registration constraints.
var ProfileUpdate = []Rule{
	{Field: "firstName", Optional: true, Trim: true, Checks: []Check{
		length(2, 30, "First name must be between 2 and 30 characters"),
	}},
	{Field: "lastName", Optional: true, Trim: true, Checks: []Check{
		length(2, 30, "Last name must be between 2 and 30 characters"),
	}},
	{Field: "email", Optional: true, Trim: true, Checks: []Check{
		pattern(emailRe, "Please enter a valid email"),
	}},
	{Field: "phone", Optional: true, Checks: []Check{
		pattern(phoneRe, "Please enter a valid phone number"),
	}},
	{Field: "bio", Optional: true, Checks: []Check{
		maxLength(500, "Bio cannot exceed 500 characters"),
	}},
	{Field: "position", Optional: true, Checks: []Check{
		maxLength(100, "Position cannot exceed 100 characters"),
	}},
	{Field: "address.country", Optional: true, Trim: true, Checks: []Check{
		maxLength(50, "Country name cannot exceed 50 characters"),
	}},
	{Field: "address.city", Optional: true, Trim: true, Checks: []Check{
		maxLength(50, "City name cannot exceed 50 characters"),
	}},
	{Field: "address.state", Optional: true, Trim: true, Checks: []Check{
		maxLength(50, "State name cannot exceed 50 characters"),
	}},
	{Field: "address.postalCode", Optional: true, Trim: true, Checks: []Check{
		maxLength(20, "Postal code cannot exceed 20 characters"),
	}},
	{Field: "address.taxId", Optional: true, Trim: true, Checks: []Check{
		maxLength(50, "Tax ID cannot exceed 50 characters"),
	}},
}

// Apply evaluates a rule set against a parsed body, accumulating every
// failing check in rule order.
func Apply(rules []Rule, body *httpx.Body) []FieldError {
	var failures []FieldError
	for _, rule := range rules {
		value, present := body.Get(rule.Field)
		if rule.Trim {
			value = strings.TrimSpace(value)
		}
		if rule.Optional && (!present || value == "") {
			continue
		}
		for _, check := range rule.Checks {
			if !check.OK(value) {
				failures = append(failures, FieldError{Field: rule.Field, Message: check.Message})
			}
		}
	}
	return failures
}
