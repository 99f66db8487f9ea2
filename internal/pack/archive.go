// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"time"

	"github.com/dupetable/dupetable/internal/fsutil"
	"github.com/dupetable/dupetable/internal/issue"
)

// WriteZip streams the bundle as a Deflate-compressed zip archive.
func (b *Bundle) WriteZip(w io.Writer, modified time.Time) (err error) {
	zw := zip.NewWriter(w)
	defer func() {
		if closeErr := zw.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, e := range b.entries {
		header := &zip.FileHeader{
			Name:     e.Path,
			Method:   zip.Deflate,
			Modified: modified,
		}
		header.SetMode(0o644)

		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("creating zip entry %s: %w", e.Path, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return fmt.Errorf("writing zip entry %s: %w", e.Path, err)
		}
	}
	return nil
}

// WriteArchive publishes the bundle as a zip at path. The archive is built in
// a temporary file next to path and renamed into place; on failure nothing
// is left behind and the returned error wraps issue.ErrAssembly.
func WriteArchive(b *Bundle, path string, modified time.Time) error {
	if b == nil {
		return &issue.AssemblyError{Path: path, Err: fmt.Errorf("nil bundle")}
	}
	err := fsutil.Publish(path, func(w io.Writer) error {
		return b.WriteZip(w, modified)
	})
	if err != nil {
		return &issue.AssemblyError{Path: path, Err: err}
	}
	return nil
}
