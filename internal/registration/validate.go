package registration

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
	digitRe    = regexp.MustCompile(`\d`)
)

const minAge = 13

// Input carries the raw fields of a single step submission. Only the
// fields belonging to the submitted step are read.
type Input struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Age         string `json:"age"`
	DateOfBirth string `json:"date_of_birth"`
	AvatarRef   string `json:"avatar_ref"`
}

// ValidateUsername checks the shared username format rule.
func ValidateUsername(username string) bool { return usernameRe.MatchString(username) }

// ValidateEmail checks the shared email format rule.
func ValidateEmail(email string) bool { return emailRe.MatchString(email) }

// PasswordPolicyErrors returns one message per violated password rule,
// empty when the password is acceptable.
func PasswordPolicyErrors(password string) []string {
	var errs []string
	if len(password) < 8 {
		errs = append(errs, "Password must be at least 8 characters.")
	}
	if !upperRe.MatchString(password) {
		errs = append(errs, "Password must include an uppercase letter.")
	}
	if !lowerRe.MatchString(password) {
		errs = append(errs, "Password must include a lowercase letter.")
	}
	if !digitRe.MatchString(password) {
		errs = append(errs, "Password must include a number.")
	}
	return errs
}

// AgeAt returns full years between dob and now.
func AgeAt(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// validateStep checks only the submitted step's fields and returns
// field-level messages. Previously validated fields are untouched.
func validateStep(step int, in Input, now time.Time) map[string]string {
	errs := map[string]string{}
	switch step {
	case StepIdentity:
		if !ValidateUsername(strings.TrimSpace(in.Username)) {
			errs["username"] = "Username must be 3-20 characters (letters, numbers, underscore)."
		}
		if n := len(strings.TrimSpace(in.DisplayName)); n < 2 || n > 40 {
			errs["display_name"] = "Display name must be 2-40 characters."
		}
	case StepEmail:
		if !ValidateEmail(strings.ToLower(strings.TrimSpace(in.Email))) {
			errs["email"] = "Please enter a valid email address."
		}
	case StepPassword:
		if msgs := PasswordPolicyErrors(in.Password); len(msgs) > 0 {
			errs["password"] = strings.Join(msgs, " ")
		}
	case StepBirthday:
		age, err := strconv.Atoi(strings.TrimSpace(in.Age))
		if err != nil {
			errs["age"] = "Please enter your age in numbers."
		} else if age < minAge {
			errs["age"] = "You must be at least 13 years old."
		}
		dobRaw := strings.TrimSpace(in.DateOfBirth)
		if dobRaw == "" {
			errs["date_of_birth"] = "Please enter your birthday."
		} else if dob, err := time.Parse("2006-01-02", dobRaw); err != nil {
			errs["date_of_birth"] = "Please use a valid date."
		} else if AgeAt(dob, now) < minAge {
			errs["date_of_birth"] = "You must be at least 13 years old."
		}
	case StepFinish:
		// Avatar is optional; the upload collaborator validated the
		// bytes before handing over a reference.
	}
	return errs
}
