package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dekarrin/koto/server/dao"
	"github.com/dekarrin/koto/server/middle"
	"github.com/dekarrin/koto/server/result"
	"github.com/dekarrin/koto/server/serr"
)

// HTTPCreateScript returns a HandlerFunc that stores a new script owned by
// the logged-in user.
func (api API) HTTPCreateScript() http.HandlerFunc {
	return api.httpEndpoint(api.epCreateScript)
}

func (api API) epCreateScript(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	var createReq CreateScriptRequest
	if err := parseJSON(req, &createReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	script, err := api.Backend.CreateScript(req.Context(), user.ID, createReq.Name, createReq.Source)
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(scriptToModel(script, true), "user '%s' created script '%s'", user.Username, script.Name)
}

// HTTPGetAllScripts returns a HandlerFunc that lists every script owned by
// the logged-in user.
func (api API) HTTPGetAllScripts() http.HandlerFunc {
	return api.httpEndpoint(api.epGetAllScripts)
}

func (api API) epGetAllScripts(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	scripts, err := api.Backend.ListScripts(req.Context(), user.ID)
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]ScriptModel, len(scripts))
	for i := range scripts {
		resp[i] = scriptToModel(scripts[i], false)
	}

	return result.OK(resp, "user '%s' listed scripts", user.Username)
}

// HTTPGetScript returns a HandlerFunc that gets a single script, including
// its source.
func (api API) HTTPGetScript() http.HandlerFunc {
	return api.httpEndpoint(api.epGetScript)
}

func (api API) epGetScript(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	script, err := api.Backend.GetScript(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	if script.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) get script %s: forbidden", user.Username, user.Role, id)
	}

	return result.OK(scriptToModel(script, true), "user '%s' got script '%s'", user.Username, script.Name)
}

// HTTPUpdateScript returns a HandlerFunc that updates an existing script's
// name and/or source.
func (api API) HTTPUpdateScript() http.HandlerFunc {
	return api.httpEndpoint(api.epUpdateScript)
}

func (api API) epUpdateScript(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	existing, err := api.Backend.GetScript(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if existing.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) update script %s: forbidden", user.Username, user.Role, id)
	}

	var updateReq UpdateScriptRequest
	if err := parseJSON(req, &updateReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	updated, err := api.Backend.UpdateScript(req.Context(), id, updateReq.Name, updateReq.Source)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.OK(scriptToModel(updated, true), "user '%s' updated script '%s'", user.Username, updated.Name)
}

// HTTPDeleteScript returns a HandlerFunc that deletes a script.
func (api API) HTTPDeleteScript() http.HandlerFunc {
	return api.httpEndpoint(api.epDeleteScript)
}

func (api API) epDeleteScript(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	existing, err := api.Backend.GetScript(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if existing.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) delete script %s: forbidden", user.Username, user.Role, id)
	}

	deleted, err := api.Backend.DeleteScript(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not delete script: " + err.Error())
	}

	return result.NoContent("user '%s' deleted script '%s'", user.Username, deleted.Name)
}

// HTTPRunScript returns a HandlerFunc that runs a stored script with the
// given CLI-style args and returns its final value or runtime error.
func (api API) HTTPRunScript() http.HandlerFunc {
	return api.httpEndpoint(api.epRunScript)
}

func (api API) epRunScript(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	existing, err := api.Backend.GetScript(req.Context(), id)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if existing.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) run script %s: forbidden", user.Username, user.Role, id)
	}

	var runReq RunRequest
	// args are optional; an empty or non-JSON body just means no args
	_ = parseJSON(req, &runReq)

	outcome, err := api.Backend.RunScript(req.Context(), id, runReq.Args)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not run script: " + err.Error())
	}

	resp := RunResponse{Value: outcome.Value, Error: outcome.Error}
	return result.OK(resp, "user '%s' ran script '%s'", user.Username, existing.Name)
}

// HTTPRunAdHoc returns a HandlerFunc that runs source given directly in the
// request body, without persisting it as a script.
func (api API) HTTPRunAdHoc() http.HandlerFunc {
	return api.httpEndpoint(api.epRunAdHoc)
}

func (api API) epRunAdHoc(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	var runReq RunRequest
	if err := parseJSON(req, &runReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if runReq.Source == "" {
		return result.BadRequest("source: property is empty or missing from request", "empty source")
	}

	outcome := api.Backend.RunAdHoc(req.Context(), runReq.Source, runReq.Args)

	resp := RunResponse{Value: outcome.Value, Error: outcome.Error}
	return result.OK(resp, "user '%s' ran ad hoc script", user.Username)
}

func scriptToModel(s dao.Script, includeSource bool) ScriptModel {
	m := ScriptModel{
		URI:      PathPrefix + "/scripts/" + s.ID.String(),
		ID:       s.ID.String(),
		Name:     s.Name,
		Created:  s.Created.Format(time.RFC3339),
		Modified: s.Modified.Format(time.RFC3339),
	}
	if includeSource {
		m.Source = s.Source
	}
	return m
}
