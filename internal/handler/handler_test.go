package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/yeojw/kampung/internal/model"
)

func pageContext(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/anything?"+query, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestPageParams(t *testing.T) {
	cases := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", defaultPageSize, 0},
		{"page=1&per_page=10", 10, 0},
		{"page=3&per_page=10", 10, 20},
		{"page=0&per_page=-5", defaultPageSize, 0},
		{"per_page=9999", maxPageSize, 0},
		{"page=junk&per_page=junk", defaultPageSize, 0},
	}
	for _, tc := range cases {
		limit, offset := pageParams(pageContext(tc.query))
		assert.Equal(t, tc.limit, limit, tc.query)
		assert.Equal(t, tc.offset, offset, tc.query)
	}
}

func TestPasswordPairErrors(t *testing.T) {
	assert.Empty(t, passwordPairErrors("Sunrise99", "Sunrise99"))

	errs := passwordPairErrors("Sunrise99", "Sunrise98")
	assert.Contains(t, errs, "confirm_password")

	errs = passwordPairErrors("weak", "weak")
	assert.Contains(t, errs, "password")
	assert.NotContains(t, errs, "confirm_password")
}

func validProfileReq() profileUpdateReq {
	return profileUpdateReq{
		Username:    "amy_tan",
		DisplayName: "Amy Tan",
		Bio:         "Gardening and kopi.",
		Location:    "Tampines",
		Phone:       "91234567",
		Website:     "https://amy.example.com",
		Privacy:     model.PrivacyPublic,
		Gender:      "female",
		AgeGroup:    "youth",
	}
}

func TestProfileUpdateValidate(t *testing.T) {
	valid := validProfileReq()
	assert.Empty(t, valid.validate())

	mutate := []struct {
		field string
		apply func(*profileUpdateReq)
	}{
		{"username", func(r *profileUpdateReq) { r.Username = "x" }},
		{"display_name", func(r *profileUpdateReq) { r.DisplayName = "A" }},
		{"bio", func(r *profileUpdateReq) { r.Bio = string(make([]byte, 161)) }},
		{"location", func(r *profileUpdateReq) { r.Location = "T" }},
		{"location", func(r *profileUpdateReq) { r.Location = "a place name far too long" }},
		{"phone", func(r *profileUpdateReq) { r.Phone = "71234567" }},
		{"phone", func(r *profileUpdateReq) { r.Phone = "9123456" }},
		{"website", func(r *profileUpdateReq) { r.Website = "ftp://amy.example.com" }},
		{"privacy", func(r *profileUpdateReq) { r.Privacy = "secret" }},
		{"gender", func(r *profileUpdateReq) { r.Gender = "other" }},
		{"age_group", func(r *profileUpdateReq) { r.AgeGroup = "elder" }},
	}
	for _, tc := range mutate {
		req := validProfileReq()
		tc.apply(&req)
		assert.Contains(t, req.validate(), tc.field)
	}
}

func TestProfileUpdateOptionalFieldsMayBeEmpty(t *testing.T) {
	req := validProfileReq()
	req.Bio = ""
	req.Location = ""
	req.Phone = ""
	req.Website = ""
	req.Gender = ""
	req.AgeGroup = ""
	assert.Empty(t, req.validate())
}
