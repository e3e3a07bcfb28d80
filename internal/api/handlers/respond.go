package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "orgconsole/internal/api/context"
	"orgconsole/internal/engine/access"
	"orgconsole/internal/pkg/errors"
	"orgconsole/internal/platform/auth"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decode reads the JSON body into v and answers 400 when it can't.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return false
	}
	return true
}

func claimsFrom(r *http.Request) *auth.Claims {
	return r.Context().Value(apiContext.Claims).(*auth.Claims)
}

func stateFrom(r *http.Request) *access.AccessState {
	return r.Context().Value(apiContext.AccessState).(*access.AccessState)
}

func param(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

// SessionResponse is returned by every endpoint that starts or re-targets a session.
type SessionResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token,omitempty"`
	State        *access.AccessState `json:"state"`
}

// issueSession signs tokens bound to the state's active tenant.
func issueSession(tokens *auth.TokenService, state *access.AccessState, withRefresh bool) (*SessionResponse, error) {
	orgID := ""
	if state.ActiveOrganization != nil {
		orgID = state.ActiveOrganization.ID
	}

	accessToken, err := tokens.GenerateAccessToken(state.PrincipalID, orgID, string(state.Role), state.Email)
	if err != nil {
		return nil, err
	}
	resp := &SessionResponse{AccessToken: accessToken, State: state}
	if withRefresh {
		if resp.RefreshToken, err = tokens.GenerateRefreshToken(state.PrincipalID); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func writeSession(w http.ResponseWriter, status int, tokens *auth.TokenService, state *access.AccessState, withRefresh bool) {
	resp, err := issueSession(tokens, state, withRefresh)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}
	writeJSON(w, status, resp)
}
