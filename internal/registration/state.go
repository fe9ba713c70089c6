// Package registration implements the five-step signup state machine.
// All in-progress state lives in the caller's session payload; a
// durable user row only appears when step five commits, so an abandoned
// signup leaves no trace.
package registration

import "time"

// Step indices. Steps are strictly ordered and cannot be skipped.
const (
	StepIdentity = 1 // username + display name
	StepEmail    = 2
	StepPassword = 3
	StepBirthday = 4 // age + date of birth
	StepFinish   = 5 // optional avatar, then commit
	stepCount    = 5
)

// State is the session-scoped accumulator. Step is the next step
// awaiting input; fields for steps below Step have been validated and
// merged. The raw password is never held here - step three stores only
// the bcrypt hash.
type State struct {
	Step         int        `json:"step"`
	Username     string     `json:"username,omitempty"`
	DisplayName  string     `json:"display_name,omitempty"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"password_hash,omitempty"`
	Age          int        `json:"age,omitempty"`
	DateOfBirth  *time.Time `json:"date_of_birth,omitempty"`
	AvatarRef    string     `json:"avatar_ref,omitempty"`
}

// NewState returns an accumulator positioned at step one.
func NewState() *State { return &State{Step: StepIdentity} }

// completedThrough reports whether the accumulator holds valid data for
// every step up to and including n.
func (s *State) completedThrough(n int) bool {
	if n >= StepIdentity && (s.Username == "" || s.DisplayName == "") {
		return false
	}
	if n >= StepEmail && s.Email == "" {
		return false
	}
	if n >= StepPassword && s.PasswordHash == "" {
		return false
	}
	if n >= StepBirthday && s.DateOfBirth == nil {
		return false
	}
	return true
}
