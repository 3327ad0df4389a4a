package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyB     = 66  // B key (ASCII), toggles bloom
	KeyM     = 77  // M key (ASCII), toggles motion blur
	KeyP     = 80  // P key (ASCII), saves a panel snapshot
	KeyW     = 87  // W key (ASCII), toggles wireframe
	KeySpace = 32  // Spacebar (ASCII), pauses the loop
	KeyEsc   = 256 // Escape key (GLFW)

	KeyRight = 262 // Right arrow (GLFW)
	KeyLeft  = 263 // Left arrow (GLFW)
	KeyDown  = 264 // Down arrow (GLFW)
	KeyUp    = 265 // Up arrow (GLFW)
)
