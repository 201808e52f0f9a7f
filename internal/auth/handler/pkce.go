package handler

import (
	"crypto/sha256"
	"encoding/base64"
	"net/http"

	"ftf-gateway/internal/utils"
)

const pkceCookieName = "__oauth_pkce"

// generatePKCE creates an S256 verifier/challenge pair and keeps the
// verifier in a cookie for the callback.
func generatePKCE(w http.ResponseWriter) (verifier, challenge string, err error) {
	verifier, err = utils.RandomString(32)
	if err != nil {
		return "", "", err
	}

	hash := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(hash[:])

	setFlowCookie(w, pkceCookieName, verifier)
	return verifier, challenge, nil
}

func getPKCEVerifier(r *http.Request) string {
	return readCookie(r, pkceCookieName)
}
