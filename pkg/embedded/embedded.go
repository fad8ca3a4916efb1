// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains the viewer page served at "/" (static/index.html)
//
//go:embed static
var Files embed.FS
