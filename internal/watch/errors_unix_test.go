// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"fmt"
	"syscall"
	"testing"
)

func TestWatcherBroken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want bool
	}{
		{syscall.ENOSPC, true},
		{fmt.Errorf("inotify: %w", syscall.EMFILE), true},
		{syscall.ENFILE, true},
		{syscall.EACCES, false},
		{fmt.Errorf("transient"), false},
	}
	for _, tt := range tests {
		if got := watcherBroken(tt.err); got != tt.want {
			t.Errorf("watcherBroken(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
