// Package api provides HTTP API endpoints for the embeddable koto script
// server.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dekarrin/koto/server/result"
	"github.com/dekarrin/koto/server/serr"
	"github.com/dekarrin/koto/server/svc"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// PathPrefix is the prefix of all paths in the API. Routers should mount
	// a sub-router that routes all requests to the API at this path.
	PathPrefix = "/api/v1"
)

// requireIDParam gets the ID of the main entity being referenced in the URI
// and returns it. It panics if the key is not there or is not parsable;
// callers run behind httpEndpoint's panicTo500 recovery.
func requireIDParam(r *http.Request) uuid.UUID {
	id, err := getURLParam(r, "id", uuid.Parse)
	if err != nil {
		panic(err.Error())
	}
	return id
}

func getURLParam[E any](r *http.Request, key string, parse func(string) (E, error)) (val E, err error) {
	valStr := chi.URLParam(r, key)
	if valStr == "" {
		return val, fmt.Errorf("parameter does not exist")
	}

	val, err = parse(valStr)
	if err != nil {
		return val, serr.New("", serr.ErrBadArgument)
	}
	return val, nil
}

// API holds parameters for endpoints needed to run and a service layer that
// performs most of the actual logic. To use API, create one and then assign
// the result of its HTTP* methods as handlers to a router.
//
// This is exclusively an API for serving external requests. For direct
// programmatic access into a koto server's backend via Go code, see
// [svc.Service].
type API struct {
	// Backend is the service that the API calls to perform the requested
	// actions.
	Backend svc.Service

	// UnauthDelay is the amount of time a request pauses before responding
	// with an HTTP-403, HTTP-401, or HTTP-500, to deprioritize such requests
	// from processing and I/O.
	UnauthDelay time.Duration

	// Secret is the secret used to sign JWT tokens.
	Secret []byte
}

// parseJSON decodes the JSON body of req into v, which must be a pointer.
// The body is restored onto req afterward so other middleware may still
// read it. Returns an error matching serr.ErrBodyUnmarshal if the problem
// was with the JSON itself.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")

	if strings.ToLower(contentType) != "application/json" {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	defer func() {
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyData))
	}()

	if err := json.Unmarshal(bodyData, v); err != nil {
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}

	return nil
}

// EndpointFunc is a single API operation, isolated from the mechanics of
// writing an HTTP response.
type EndpointFunc func(req *http.Request) result.Result

// httpEndpoint adapts an EndpointFunc into an http.HandlerFunc: it recovers
// panics into an HTTP-500, writes and logs the Result, and applies
// UnauthDelay to responses that reveal an auth or server failure.
func (api API) httpEndpoint(ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)
		r := ep(req)

		if r.Status == 0 {
			result.InternalServerError("endpoint result was never populated").WriteResponse(w)
			return
		}

		if err := r.PrepareMarshaledResponse(); err != nil {
			newResp := result.Err(r.Status, "An internal server error occurred", "could not marshal JSON response: "+err.Error())
			newResp.WriteResponse(w)
			newResp.Log(req)
			return
		}

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			time.Sleep(api.UnauthDelay)
		}

		r.WriteResponse(w)
		r.Log(req)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) (panicVal interface{}) {
	if panicErr := recover(); panicErr != nil {
		r := result.TextErr(
			http.StatusInternalServerError,
			"An internal server error occurred",
			fmt.Sprintf("panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack())),
		)
		r.WriteResponse(w)
		r.Log(req)
		return true
	}
	return false
}
