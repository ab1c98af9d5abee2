package api

import (
	"net/http"

	"github.com/dekarrin/koto/internal/version"
	"github.com/dekarrin/koto/server/dao"
	"github.com/dekarrin/koto/server/middle"
	"github.com/dekarrin/koto/server/result"
)

func (api API) epGetInfo(req *http.Request) result.Result {
	loggedIn := req.Context().Value(middle.AuthLoggedIn).(bool)

	var resp InfoModel
	resp.Version.Server = version.ServerCurrent
	resp.Version.Koto = version.Current

	userStr := "unauthed client"
	if loggedIn {
		user := req.Context().Value(middle.AuthUser).(dao.User)
		userStr = "user '" + user.Username + "'"
	}
	return result.OK(resp, "%s got API info", userStr)
}
