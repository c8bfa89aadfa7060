package domain

// AuthContext is the identity a request acts as: either Authenticated, carrying the
// resolved principal and the access token in force, or Anonymous.
type AuthContext struct {
	principal *Principal
	rawToken  string
}

// Anonymous returns the context for a request without a principal.
func Anonymous() AuthContext {
	return AuthContext{}
}

// Authenticated returns the context for a request acting as principal.
func Authenticated(principal Principal, rawToken string) AuthContext {
	p := principal
	return AuthContext{principal: &p, rawToken: rawToken}
}

// IsAuthenticated reports whether a principal is attached.
func (a AuthContext) IsAuthenticated() bool {
	return a.principal != nil
}

// Principal returns a copy of the attached principal.
func (a AuthContext) Principal() (Principal, bool) {
	if a.principal == nil {
		return Principal{}, false
	}
	return *a.principal, true
}

// RawToken returns the access token the request was authenticated with, or "" when anonymous.
func (a AuthContext) RawToken() string {
	return a.rawToken
}
