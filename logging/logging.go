// Package logging carries the small ambient logging surface used by the
// snapshot orchestrator and its components. It keeps a lightweight
// package-level verbosity Flag but backs every line with a structured
// *logrus.Logger instead of ad-hoc fmt.Sprintf strings.
package logging

import (
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
)

// Flag is the verbosity level for the package-level logger.
type Flag int

const (
	Nil Flag = iota
	Performance
	Debug
)

// Mode is a package-level variable so that the verbosity setting doesn't
// need to be passed through every function in the project.
var (
	Mode Flag = Nil
	base      = logrus.New()
)

func init() {
	base.SetLevel(logrus.WarnLevel)
}

// SetMode adjusts both the legacy Mode flag and the underlying logrus
// level, so call sites that only check Mode still see consistent behavior.
func SetMode(f Flag) {
	Mode = f
	switch f {
	case Debug:
		base.SetLevel(logrus.DebugLevel)
	case Performance:
		base.SetLevel(logrus.InfoLevel)
	default:
		base.SetLevel(logrus.WarnLevel)
	}
}

// For returns a logger scoped to one component (e.g. "halobox",
// "spintemp", "ionize"), used for per-snapshot lifecycle milestones and
// error/warning paths. It is never called from an inner per-cell or
// per-shell loop.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}

// Snapshot returns a logger additionally scoped to a redshift step, used by
// the orchestrator to tag every line emitted while processing one snapshot.
func Snapshot(component string, z float64) *logrus.Entry {
	return base.WithFields(logrus.Fields{"component": component, "z": z})
}

// MemString returns a string containing various statistics on the current
// memory usage of the process.
func MemString() string {
	ms := runtime.MemStats{}
	runtime.ReadMemStats(&ms)
	return fmt.Sprintf(
		"Alloc - %d MB; Sys - %d MB Integrated - %d MB",
		ms.Alloc>>20, ms.Sys>>20, ms.TotalAlloc>>20,
	)
}
