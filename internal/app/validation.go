package app

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
)

var (
	validate        = validator.New()
	usernamePattern = regexp.MustCompile(`^[a-z-]+$`)
)

// check is one named predicate of a form. Checks run in order and only the first failing
// check of each field is reported.
type check struct {
	field   string
	message string
	ok      func() bool
}

func runChecks(checks []check) *ValidationError {
	verr := &ValidationError{}
	failed := make(map[string]bool)
	for _, c := range checks {
		if failed[c.field] {
			continue
		}
		if !c.ok() {
			verr.Add(c.field, c.message)
			failed[c.field] = true
		}
	}
	if !verr.HasError() {
		return nil
	}
	return verr
}

func notBlank(s string) func() bool {
	return func() bool { return strings.TrimSpace(s) != "" }
}

func isEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

type BookingInput struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Observations string `json:"observations"`
	Date         string `json:"date"`
}

// ValidateBookingRequest checks a public booking form and returns the parsed date.
func ValidateBookingRequest(in BookingInput) (time.Time, *ValidationError) {
	var date time.Time
	verr := runChecks([]check{
		{field: "name", message: "name is required", ok: notBlank(in.Name)},
		{field: "email", message: "email is required", ok: notBlank(in.Email)},
		{field: "email", message: "email must be a valid address", ok: func() bool { return isEmail(strings.TrimSpace(in.Email)) }},
		{field: "date", message: "date is required", ok: notBlank(in.Date)},
		{field: "date", message: "date must be an ISO-8601 date-time", ok: func() bool {
			var err error
			date, err = time.Parse(time.RFC3339, strings.TrimSpace(in.Date))
			return err == nil
		}},
	})
	return date, verr
}

type ClaimInput struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// ValidateClaimRequest normalises the username and checks the registration form.
func ValidateClaimRequest(in ClaimInput) (ClaimInput, *ValidationError) {
	out := ClaimInput{
		Username: slug.Make(strings.TrimSpace(in.Username)),
		Name:     strings.TrimSpace(in.Name),
	}
	verr := runChecks([]check{
		{field: "username", message: "username must have at least 3 characters", ok: func() bool { return len(out.Username) >= 3 }},
		{field: "username", message: "username may only contain letters and hyphens", ok: func() bool { return usernamePattern.MatchString(out.Username) }},
		{field: "name", message: "name must have at least 3 characters", ok: func() bool { return len([]rune(out.Name)) >= 3 }},
	})
	return out, verr
}
