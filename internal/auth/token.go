// Package auth recovers a Skoob bearer credential and account
// identifier from a human-completed browser login. Two observation
// channels feed the acquisition flow: live network traffic to the API
// hosts, and the browser's persisted key/value storage. Both channels
// accept a candidate only after the structural credential check.
package auth

import "strings"

// Credential is an opaque bearer token presented on the authorization
// header. It is held in memory for the run and never persisted here.
// The service expires it after roughly 13 days; expiry is not
// detectable up front, a rejected first page is the only signal.
type Credential string

const (
	credentialPrefix = "eyJ"
	credentialMinLen = 50
)

// Valid reports whether the credential is structurally a JWT: exactly
// three dot-separated non-empty segments, the standard base64 JSON
// header prefix, and at least 50 characters. No cryptographic
// verification happens anywhere in this program.
func (c Credential) Valid() bool {
	s := string(c)
	if len(s) < credentialMinLen {
		return false
	}
	if !strings.HasPrefix(s, credentialPrefix) {
		return false
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
	}
	return true
}
