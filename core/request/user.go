package request

// User is the identity attached to a request by an authentication backend.
type User interface {
	ID() string
	IsAuthenticated() bool
}

// AnonymousUser is the user of a request no backend has authenticated.
type AnonymousUser struct{}

func (AnonymousUser) ID() string            { return "" }
func (AnonymousUser) IsAuthenticated() bool { return false }

// SetUser attaches the authenticated user and the scope label of the backend
// that produced it. A nil user resets the request to anonymous.
func (r *Request) SetUser(user User, scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user == nil {
		r.user = nil
		r.authScope = ""
		return
	}
	r.user = user
	r.authScope = scope
}

// User returns the attached user, or AnonymousUser.
func (r *Request) User() User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.user == nil {
		return AnonymousUser{}
	}
	return r.user
}

// AuthScope returns the scope label set together with the user.
func (r *Request) AuthScope() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.authScope
}
