// Package egl holds the public value types of the display layer: error
// codes, surface attributes and client API identifiers.
package egl

// API identifies the client rendering API bound on a thread
type API int

const (
	NoAPI API = iota
	OpenGLES
	OpenVG
)

func (a API) String() string {
	switch a {
	case OpenGLES:
		return "OpenGL ES"
	case OpenVG:
		return "OpenVG"
	default:
		return "none"
	}
}
