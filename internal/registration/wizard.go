package registration

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yeojw/kampung/internal/auth"
	"github.com/yeojw/kampung/internal/model"
	"github.com/yeojw/kampung/internal/repository"
)

// userDirectory is the slice of the user repository the wizard needs:
// pre-checks for the early steps and the final atomic create.
type userDirectory interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u *model.User) error
}

// Wizard validates step submissions against the session accumulator
// and commits the durable user on step five.
type Wizard struct {
	Users      userDirectory
	BcryptCost int
	Now        func() time.Time
}

func NewWizard(users userDirectory, bcryptCost int) *Wizard {
	return &Wizard{Users: users, BcryptCost: bcryptCost, Now: time.Now}
}

// Result reports the outcome of one step submission. Exactly one of
// the following holds: FieldErrors is non-empty (state unchanged),
// RedirectStep is non-zero (out-of-order submission, resume there),
// User is set (step five committed), or the submission advanced or
// no-op'd normally.
type Result struct {
	State        *State
	FieldErrors  map[string]string
	RedirectStep int
	User         *model.User
}

// Submit processes one step. st is mutated in place on success; callers
// persist it back into the session afterwards. An error return means
// infrastructure failure, never a validation outcome.
func (w *Wizard) Submit(ctx context.Context, st *State, step int, in Input) (*Result, error) {
	res := &Result{State: st}

	// A submission for a step past the furthest legitimately reached
	// one is redirected back, never forward.
	if step < StepIdentity || step > stepCount || step > st.Step {
		res.RedirectStep = st.Step
		return res, nil
	}

	// Replay of an already-completed step with identical data is a
	// no-op: double-submits must not move the machine.
	if step < st.Step && w.isReplay(st, step, in) {
		return res, nil
	}

	if errs := validateStep(step, in, w.Now()); len(errs) > 0 {
		res.FieldErrors = errs
		return res, nil
	}

	switch step {
	case StepIdentity:
		username := strings.TrimSpace(in.Username)
		taken, err := w.Users.UsernameExists(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if taken && username != st.Username {
			res.FieldErrors = map[string]string{"username": "Username is already taken."}
			return res, nil
		}
		st.Username = username
		st.DisplayName = strings.TrimSpace(in.DisplayName)
	case StepEmail:
		email := strings.ToLower(strings.TrimSpace(in.Email))
		taken, err := w.Users.EmailExists(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if taken && email != st.Email {
			res.FieldErrors = map[string]string{"email": "Email is already registered."}
			return res, nil
		}
		st.Email = email
	case StepPassword:
		// Hash immediately; the raw password is not retained anywhere
		// past this call.
		hash, err := auth.HashPassword(in.Password, w.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		st.PasswordHash = hash
	case StepBirthday:
		dob, _ := time.Parse("2006-01-02", strings.TrimSpace(in.DateOfBirth))
		st.DateOfBirth = &dob
		if age, err := strconv.Atoi(strings.TrimSpace(in.Age)); err == nil {
			st.Age = age
		}
	case StepFinish:
		return w.commit(ctx, st, in, res)
	}

	if step == st.Step {
		st.Step++
	}
	return res, nil
}

// commit creates the durable user from the accumulator. The unique
// indexes are the last word on races that appeared since the early
// steps ran their pre-checks; on conflict the wizard stays at step
// five.
func (w *Wizard) commit(ctx context.Context, st *State, in Input, res *Result) (*Result, error) {
	if !st.completedThrough(StepBirthday) {
		// Accumulator lost a required field (expired or tampered
		// session): restart from scratch.
		*st = *NewState()
		res.RedirectStep = StepIdentity
		return res, nil
	}
	if ref := strings.TrimSpace(in.AvatarRef); ref != "" {
		st.AvatarRef = ref
	}

	user := &model.User{
		Username:     st.Username,
		Email:        st.Email,
		PasswordHash: st.PasswordHash,
		DisplayName:  st.DisplayName,
		DateOfBirth:  st.DateOfBirth,
		AvatarRef:    st.AvatarRef,
		Privacy:      model.PrivacyPublic,
		IsActive:     true,
	}
	if err := w.Users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			res.FieldErrors = map[string]string{"username": "Username is already taken."}
			return res, nil
		case errors.Is(err, repository.ErrEmailExists):
			res.FieldErrors = map[string]string{"email": "Email is already registered."}
			return res, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	res.User = user
	return res, nil
}

// isReplay reports whether the submission repeats the data already
// merged for an earlier step. Passwords are compared by verifying the
// raw value against the stored hash.
func (w *Wizard) isReplay(st *State, step int, in Input) bool {
	switch step {
	case StepIdentity:
		return strings.TrimSpace(in.Username) == st.Username &&
			strings.TrimSpace(in.DisplayName) == st.DisplayName
	case StepEmail:
		return strings.ToLower(strings.TrimSpace(in.Email)) == st.Email
	case StepPassword:
		return st.PasswordHash != "" && auth.VerifyPassword(st.PasswordHash, in.Password)
	case StepBirthday:
		if st.DateOfBirth == nil {
			return false
		}
		dob, err := time.Parse("2006-01-02", strings.TrimSpace(in.DateOfBirth))
		return err == nil && dob.Equal(*st.DateOfBirth)
	}
	return false
}
