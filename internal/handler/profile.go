package handler

import (
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yeojw/kampung/internal/auth"
	"github.com/yeojw/kampung/internal/config"
	"github.com/yeojw/kampung/internal/middleware"
	"github.com/yeojw/kampung/internal/model"
	"github.com/yeojw/kampung/internal/registration"
	"github.com/yeojw/kampung/internal/repository"
	"github.com/yeojw/kampung/internal/session"
	"github.com/yeojw/kampung/internal/social"
	"github.com/yeojw/kampung/internal/upload"
)

var (
	phoneRe   = regexp.MustCompile(`^[89]\d{7}$`)
	websiteRe = regexp.MustCompile(`^https?://\S+$`)
)

// ProfileHandler serves profile viewing, editing, avatar upload and
// account deletion.
type ProfileHandler struct {
	Cfg        config.Config
	Users      *repository.UserRepo
	Follows    *repository.FollowRepo
	Hobbies    *repository.HobbyRepo
	Tokens     *repository.ResetTokenRepo
	Authorizer *social.Authorizer
	Sessions   *session.Manager
	Uploads    *upload.Store
}

// profileResp is the public projection of a profile page. Email and
// phone stay private to the owner.
type profileResp struct {
	userCard
	Bio            string        `json:"bio,omitempty"`
	Location       string        `json:"location,omitempty"`
	Website        string        `json:"website,omitempty"`
	Gender         string        `json:"gender,omitempty"`
	AgeGroup       string        `json:"age_group,omitempty"`
	Hobbies        []string      `json:"hobbies"`
	FollowerCount  int           `json:"follower_count"`
	FollowingCount int           `json:"following_count"`
	IsFollowing    bool          `json:"is_following"`
	FollowsYou     bool          `json:"follows_you"`
	CanMessage     bool          `json:"can_message"`
	MessageDenied  string        `json:"message_denied_reason,omitempty"`
	JoinedAt       time.Time     `json:"joined_at"`
	Owner          *ownerDetails `json:"owner,omitempty"`
}

// ownerDetails is appended only when the viewer is the profile owner.
type ownerDetails struct {
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
}

// View assembles a profile page together with the viewer's follow and
// messaging context.
func (h *ProfileHandler) View(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	target, err := h.Users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	resp := profileResp{
		userCard: toUserCard(target),
		Bio:      target.Bio,
		Location: target.Location,
		Website:  target.Website,
		Gender:   target.Gender,
		AgeGroup: target.AgeGroup,
		Hobbies:  []string{},
		JoinedAt: target.CreatedAt,
	}

	hobbies, err := h.Hobbies.ListForUser(ctx, target.ID)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	for _, hb := range hobbies {
		resp.Hobbies = append(resp.Hobbies, hb.Name)
	}

	if resp.FollowerCount, err = h.Follows.CountFollowers(ctx, target.ID); err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	if resp.FollowingCount, err = h.Follows.CountFollowing(ctx, target.ID); err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}

	principal := middleware.CurrentPrincipal(c)
	if !principal.Anonymous() && principal.User.ID != target.ID {
		viewer := principal.User
		if resp.IsFollowing, err = h.Follows.IsFollowing(ctx, viewer.ID, target.ID); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
		}
		if resp.FollowsYou, err = h.Follows.IsFollowing(ctx, target.ID, viewer.ID); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
		}
		decision, err := h.Authorizer.CanMessage(ctx, &viewer, &target)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
		}
		resp.CanMessage = decision.Allowed
		resp.MessageDenied = decision.Reason
	}
	if !principal.Anonymous() && principal.User.ID == target.ID {
		resp.Owner = &ownerDetails{
			Email:       target.Email,
			Phone:       target.Phone,
			DateOfBirth: target.DateOfBirth,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

type profileUpdateReq struct {
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	Bio         string   `json:"bio"`
	Location    string   `json:"location"`
	Phone       string   `json:"phone"`
	Website     string   `json:"website"`
	Privacy     string   `json:"privacy"`
	Gender      string   `json:"gender"`
	AgeGroup    string   `json:"age_group"`
	DateOfBirth string   `json:"date_of_birth"`
	HobbyIDs    []uint64 `json:"hobby_ids"`
}

// validate applies the profile field rules. Optional fields are only
// checked when present.
func (r *profileUpdateReq) validate() map[string]string {
	errs := map[string]string{}
	if !registration.ValidateUsername(r.Username) {
		errs["username"] = "Username must be 3-20 characters (letters, numbers, underscore)."
	}
	if n := len(strings.TrimSpace(r.DisplayName)); n < 2 || n > 40 {
		errs["display_name"] = "Display name must be 2-40 characters."
	}
	if len(r.Bio) > 160 {
		errs["bio"] = "Bio must be 160 characters or less."
	}
	if loc := strings.TrimSpace(r.Location); loc != "" && (len(loc) < 2 || len(loc) > 20) {
		errs["location"] = "Location must be 2-20 characters."
	}
	if r.Phone != "" && !phoneRe.MatchString(r.Phone) {
		errs["phone"] = "Phone must be 8 digits starting with 8 or 9."
	}
	if r.Website != "" && !websiteRe.MatchString(r.Website) {
		errs["website"] = "Website must be a valid http(s) URL."
	}
	switch r.Privacy {
	case model.PrivacyPublic, model.PrivacyPrivate:
	default:
		errs["privacy"] = "Privacy must be public or private."
	}
	switch r.Gender {
	case "", "male", "female":
	default:
		errs["gender"] = "Please pick a valid gender."
	}
	switch r.AgeGroup {
	case "", "youth", "senior":
	default:
		errs["age_group"] = "Please pick a valid age group."
	}
	return errs
}

// Update edits the owner's profile, including privacy and hobbies. A
// username change contends on the same unique index as signup.
func (h *ProfileHandler) Update(c echo.Context) error {
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if errs := req.validate(); len(errs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"field_errors": errs})
	}

	var dob *time.Time
	if raw := strings.TrimSpace(req.DateOfBirth); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"field_errors": map[string]string{
				"date_of_birth": "Please use a valid date.",
			}})
		}
		dob = &parsed
	}

	ctx, cancel := reqContext(c)
	defer cancel()
	principal := middleware.CurrentPrincipal(c)

	update := repository.ProfileUpdate{
		Username:    req.Username,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Bio:         req.Bio,
		Location:    strings.TrimSpace(req.Location),
		Phone:       req.Phone,
		Website:     req.Website,
		Privacy:     req.Privacy,
		Gender:      req.Gender,
		AgeGroup:    req.AgeGroup,
		DateOfBirth: dob,
	}
	if err := h.Users.UpdateProfile(ctx, principal.User.ID, update); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"field_errors": map[string]string{
				"username": "That username is already taken.",
			}})
		}
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if req.HobbyIDs != nil {
		if err := h.Hobbies.ReplaceForUser(ctx, principal.User.ID, req.HobbyIDs); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}

	user, err := h.Users.GetByID(ctx, principal.User.ID)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserCard(user)})
}

// UploadAvatar stores avatar bytes and returns the reference. Both a
// multipart file and a cropped data URL are accepted; an authenticated
// caller's profile is updated in place, while an anonymous caller (the
// signup wizard) just gets the reference back to submit with the final
// step.
func (h *ProfileHandler) UploadAvatar(c echo.Context) error {
	ref, err := h.receiveAvatar(c)
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "image must be 2 MB or smaller"})
	case errors.Is(err, upload.ErrBadType):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only png, jpeg and webp images are accepted"})
	case err != nil:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
	}

	principal := middleware.CurrentPrincipal(c)
	if !principal.Anonymous() {
		if err := h.persistAvatar(c, principal.User, ref); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upload failed"})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"avatar_ref": ref})
}

func (h *ProfileHandler) receiveAvatar(c echo.Context) (string, error) {
	if dataURL := c.FormValue("data_url"); dataURL != "" {
		return h.Uploads.SaveDataURL(dataURL)
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		return "", upload.ErrBadType
	}
	if fh.Size > upload.MaxAvatarBytes {
		return "", upload.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, upload.MaxAvatarBytes+1))
	if err != nil {
		return "", err
	}
	return h.Uploads.Save(fh.Filename, data)
}

// persistAvatar rewrites only the avatar reference, carrying the rest
// of the profile through unchanged.
func (h *ProfileHandler) persistAvatar(c echo.Context, user model.User, ref string) error {
	ctx, cancel := reqContext(c)
	defer cancel()
	return h.Users.UpdateProfile(ctx, user.ID, repository.ProfileUpdate{
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
		Location:    user.Location,
		Phone:       user.Phone,
		Website:     user.Website,
		Privacy:     user.Privacy,
		Gender:      user.Gender,
		AgeGroup:    user.AgeGroup,
		AvatarRef:   ref,
	})
}

type deleteAccountReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DeleteAccount removes the account after a typed username confirmation
// and a password check, then destroys the session. Row deletion
// cascades to follows, messages, notifications and hobby links.
func (h *ProfileHandler) DeleteAccount(c echo.Context) error {
	var req deleteAccountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()
	principal := middleware.CurrentPrincipal(c)

	if req.Username != principal.User.Username {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username confirmation does not match"})
	}
	if !auth.VerifyPassword(principal.User.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "password is incorrect"})
	}

	if err := h.Tokens.InvalidateAllForUser(ctx, principal.User.ID); err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}
	if err := h.Users.Delete(ctx, principal.User.ID); err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deletion failed"})
	}
	if err := h.Sessions.Logout(ctx, middleware.CurrentSession(c)); err != nil {
		c.Logger().Error(err)
	}
	middleware.ClearSessionCookie(c, h.Cfg.SecureCookies)
	return c.NoContent(http.StatusNoContent)
}

// ListHobbies returns the selectable hobby catalogue.
func (h *ProfileHandler) ListHobbies(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	hobbies, err := h.Hobbies.List(ctx)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	out := make([]echo.Map, 0, len(hobbies))
	for _, hb := range hobbies {
		out = append(out, echo.Map{"id": hb.ID, "name": hb.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{"hobbies": out})
}
