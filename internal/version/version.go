// Package version provides build and version information for the
// DiagramQuest engine.
package version

// Version is the current release version.
// Override at build time with:
//
//	go build -ldflags "-X github.com/diagramquest/engine/internal/version.Version=x.y.z"
var Version = "1.0.0"
