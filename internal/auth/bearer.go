package auth

import "strings"

// AdminUsername is the single privileged identity. It is created once
// at bootstrap and gates signal creation and login.
const AdminUsername = "admin"

const bearerPrefix = "Bearer "

// ParseBearer extracts the token value from an Authorization header.
// A missing "Bearer " prefix is a rejection of its own, before any
// token value is compared; an empty remainder is rejected too.
func ParseBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", false
	}
	return token, true
}
