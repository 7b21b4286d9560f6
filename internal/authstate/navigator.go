package authstate

// Navigator abstracts the host application's routing so the auth core can
// trigger redirects without knowing how pages are rendered.
type Navigator interface {
	// CurrentPath returns the path the user is currently on.
	CurrentPath() string
	// Navigate moves the user to the given path.
	Navigate(path string)
}

// Well-known application surfaces.
const (
	// RootPath is the public landing page.
	RootPath = "/"
	// AuthPath is the authentication entry surface.
	AuthPath = "/authentication"
	// HomePath is the authenticated landing surface.
	HomePath = "/dialogues"
)
