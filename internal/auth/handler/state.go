package handler

import (
	"crypto/subtle"
	"net/http"

	"ftf-gateway/internal/utils"
)

const stateCookieName = "__oauth_state"

func generateState(w http.ResponseWriter) (string, error) {
	state, err := utils.RandomString(32)
	if err != nil {
		return "", err
	}
	setFlowCookie(w, stateCookieName, state)
	return state, nil
}

func validateState(r *http.Request) bool {
	want := readCookie(r, stateCookieName)
	got := r.URL.Query().Get("state")
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
