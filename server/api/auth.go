package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dekarrin/koto/server/dao"
	"github.com/dekarrin/koto/server/middle"
	"github.com/dekarrin/koto/server/result"
	"github.com/dekarrin/koto/server/serr"
	"github.com/dekarrin/koto/server/token"
)

// HTTPCreateLogin returns a HandlerFunc that logs in a user with a username
// and password and returns an auth token for that user.
func (api API) HTTPCreateLogin() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateLogin)
}

func (api API) epCreateLogin(req *http.Request) result.Result {
	loginData := LoginRequest{}
	if err := parseJSON(req, &loginData); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	if loginData.Username == "" {
		return result.BadRequest("username: property is empty or missing from request", "empty username")
	}
	if loginData.Password == "" {
		return result.BadRequest("password: property is empty or missing from request", "empty password")
	}

	user, err := api.Backend.Login(req.Context(), loginData.Username, loginData.Password)
	if err != nil {
		if errors.Is(err, serr.ErrBadCredentials) {
			return result.Unauthorized(serr.ErrBadCredentials.Error(), "user '%s': %s", loginData.Username, err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	tok, err := token.Generate(api.Secret, user)
	if err != nil {
		return result.InternalServerError("could not generate JWT: " + err.Error())
	}

	resp := LoginResponse{
		Token:  tok,
		UserID: user.ID.String(),
	}
	return result.Created(resp, "user '"+user.Username+"' successfully logged in")
}

// HTTPCreateRegistration returns a HandlerFunc that self-registers a new
// account at the Unverified role.
func (api API) HTTPCreateRegistration() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateRegistration)
}

func (api API) epCreateRegistration(req *http.Request) result.Result {
	regData := RegisterRequest{}
	if err := parseJSON(req, &regData); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	user, err := api.Backend.Register(req.Context(), regData.Username, regData.Password, regData.Email)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return result.Conflict("A user with that username already exists", "user '%s' already exists", regData.Username)
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	resp := userToModel(user)
	return result.Created(resp, "user '%s' (%s) registered", resp.Username, resp.ID)
}

// HTTPDeleteLogin returns a HandlerFunc that logs out the currently
// authenticated user, invalidating any JWT issued before the logout.
func (api API) HTTPDeleteLogin() http.HandlerFunc {
	return api.httpEndpoint(api.epDeleteLogin)
}

func (api API) epDeleteLogin(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	_, err := api.Backend.Logout(req.Context(), user.ID)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not log out user: " + err.Error())
	}

	return result.NoContent("user '%s' successfully logged out", user.Username)
}

// HTTPGetInfo returns a HandlerFunc that retrieves version information on
// the API and the koto language core it embeds.
func (api API) HTTPGetInfo() http.HandlerFunc {
	return api.httpEndpoint(api.epGetInfo)
}

func userToModel(u dao.User) UserModel {
	m := UserModel{
		URI:            PathPrefix + "/users/" + u.ID.String(),
		ID:             u.ID.String(),
		Username:       u.Username,
		Role:           u.Role.String(),
		Created:        u.Created.Format(time.RFC3339),
		Modified:       u.Modified.Format(time.RFC3339),
		LastLogoutTime: u.LastLogoutTime.Format(time.RFC3339),
	}
	if u.Email != nil {
		m.Email = u.Email.Address
	}
	return m
}
