// Package session persists the client identity established at login.
//
// A Session carries the backend auth token, the user id it belongs to and an
// optional Google OAuth access token used for calendar import. Each field is
// stored under its own key, so a Load after a partial failure may return any
// subset of them.
package session

// Session is the client-held identity state.
type Session struct {
	AuthToken   string
	UserID      string
	AccessToken string
}

// Anonymous reports whether no auth token is present. UserID is only
// meaningful when this returns false.
func (s Session) Anonymous() bool {
	return s.AuthToken == ""
}

// Store persists a Session between runs.
type Store interface {
	// Save persists all three fields. Empty fields are removed.
	Save(s Session) error

	// Load returns whatever fields exist. Missing fields are empty.
	Load() (Session, error)

	// Clear removes all fields. It is the only logout primitive.
	Clear() error

	// Close releases the underlying storage.
	Close() error
}

// Storage keys.
const (
	KeyAuthToken   = "authToken"
	KeyUserID      = "userId"
	KeyAccessToken = "accessToken"
)

func (s Session) fields() map[string]string {
	return map[string]string{
		KeyAuthToken:   s.AuthToken,
		KeyUserID:      s.UserID,
		KeyAccessToken: s.AccessToken,
	}
}

func (s *Session) set(key, value string) {
	switch key {
	case KeyAuthToken:
		s.AuthToken = value
	case KeyUserID:
		s.UserID = value
	case KeyAccessToken:
		s.AccessToken = value
	}
}
