package commands

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform selects which variant of a binding applies.
type Platform string

const (
	PlatformMac     Platform = "mac"
	PlatformWindows Platform = "win"
	PlatformLinux   Platform = "linux"
)

// Platforms lists the known platforms.
var Platforms = []Platform{PlatformMac, PlatformWindows, PlatformLinux}

// ParsePlatform parses a platform name. Common GOOS spellings are accepted.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mac", "macos", "darwin", "osx":
		return PlatformMac, nil
	case "win", "windows":
		return PlatformWindows, nil
	case "linux", "unix", "freebsd", "openbsd", "netbsd":
		return PlatformLinux, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
	}
}

// CurrentPlatform returns the platform the binary runs on.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "darwin", "ios":
		return PlatformMac
	case "windows":
		return PlatformWindows
	default:
		return PlatformLinux
	}
}

// UsesCmd reports whether the primary modifier on p is Cmd rather than Ctrl.
func (p Platform) UsesCmd() bool {
	return p == PlatformMac
}

// String returns the platform name.
func (p Platform) String() string {
	return string(p)
}
