// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"errors"
	"syscall"
)

// watcherBroken reports inotify resource exhaustion, after which no further
// events will arrive: watch limit (ENOSPC), process (EMFILE) or system
// (ENFILE) descriptor limits.
func watcherBroken(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE)
}
