package api

// note that these are *not* the DAO models; those are distinct and closer to
// the DB format they are stored in. These are the models sent to and
// received from API clients.

// LoginRequest is the body of a POST to the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login or token refresh.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// RegisterRequest is the body of a POST to the registration endpoint.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// UserModel is a registered account as shown to API clients.
type UserModel struct {
	URI            string `json:"uri"`
	ID             string `json:"id,omitempty"`
	Username       string `json:"username,omitempty"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	Created        string `json:"created,omitempty"`
	Modified       string `json:"modified,omitempty"`
	LastLogoutTime string `json:"last_logout,omitempty"`
}

// ScriptModel is a stored Koto script as shown to API clients. Source is
// only included on a direct GetScript; list responses omit it to keep the
// listing endpoint cheap.
type ScriptModel struct {
	URI      string `json:"uri"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Source   string `json:"source,omitempty"`
	Created  string `json:"created"`
	Modified string `json:"modified"`
}

// CreateScriptRequest is the body of a POST to create a new script.
type CreateScriptRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// UpdateScriptRequest is the body of a PUT to update an existing script.
// Either field may be left blank to leave that property unchanged.
type UpdateScriptRequest struct {
	Name   string `json:"name,omitempty"`
	Source string `json:"source,omitempty"`
}

// RunRequest is the body of a POST to run a script, stored or ad hoc. Args
// are exposed to the running script the same way as CLI arguments, as
// `env.args`.
type RunRequest struct {
	Source string   `json:"source,omitempty"`
	Args   []string `json:"args,omitempty"`
}

// RunResponse is the outcome of a script run. Exactly one of Value or Error
// is set.
type RunResponse struct {
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// InfoModel gives version information on the running server and the koto
// language core it embeds.
type InfoModel struct {
	Version struct {
		Server string `json:"server"`
		Koto   string `json:"koto"`
	} `json:"version"`
}
