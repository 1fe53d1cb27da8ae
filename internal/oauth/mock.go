package oauth

import "strings"

const mockPrefix = "mock:"

// IsMockToken reports whether tok uses the test shortcut format. Callers
// must additionally check that mock tokens are enabled in configuration;
// they are never honored in a production deployment.
func IsMockToken(tok string) bool {
	return strings.HasPrefix(tok, mockPrefix)
}

// ResolveMockToken maps "mock:{externalId}" straight to a profile,
// bypassing the provider round-trip.
func ResolveMockToken(tok string) *UserInfo {
	id := strings.TrimPrefix(tok, mockPrefix)
	return &UserInfo{ExternalID: id, Name: "Mock User " + id}
}
