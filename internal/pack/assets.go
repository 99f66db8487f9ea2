// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/dupetable/dupetable/internal/issue"
)

// placeholderTexture is a fully transparent 16x16 PNG used when a face
// texture cannot be read.
var placeholderTexture = mustEncodePlaceholder()

// Assets locates the optional binary files shipped with behavior and
// complete packs. Empty paths count as missing.
type Assets struct {
	// PackIcon is copied into each pack root as pack_icon.png.
	PackIcon string
	// TextureDir holds duplicating_table_{front,side,top}.png.
	TextureDir string
}

// PlaceholderTexture returns a copy of the fallback texture bytes.
func PlaceholderTexture() []byte {
	return bytes.Clone(placeholderTexture)
}

func (a Assets) packIcon() ([]byte, error) {
	return readAsset(a.PackIcon)
}

func (a Assets) texture(face string) ([]byte, error) {
	if a.TextureDir == "" {
		return readAsset("")
	}
	return readAsset(filepath.Join(a.TextureDir, TextureFile(face)))
}

func readAsset(path string) ([]byte, error) {
	if path == "" {
		return nil, &issue.AssetMissingError{Path: "(unset)", Err: os.ErrNotExist}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &issue.AssetMissingError{Path: path, Err: err}
	}
	return data, nil
}

func mustEncodePlaceholder() []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 16, 16))); err != nil {
		panic("pack: encoding placeholder texture: " + err.Error())
	}
	return buf.Bytes()
}
