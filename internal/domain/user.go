package domain

// Requester is the identity behind a request. A nil *Requester is anonymous.
type Requester struct {
	Username string `json:"username"`
	Subject  string `json:"sub,omitempty"`
}

// Authenticated reports whether the request carried a valid identity
func (r *Requester) Authenticated() bool {
	return r != nil && r.Username != ""
}

// Name returns the username or "anonymous" for logging
func (r *Requester) Name() string {
	if !r.Authenticated() {
		return "anonymous"
	}
	return r.Username
}
