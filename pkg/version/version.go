// Package version stamps the build/release version of the search core,
// mirroring the teacher's pkg/engine.version convention.
package version

import "github.com/seekerror/build"

// Version is the current release of the search core, surfaced on
// Bot.Name().
var Version = build.NewVersion(0, 1, 0)
