// SPDX-License-Identifier: MPL-2.0

package pack

import "github.com/dupetable/dupetable/internal/issue"

const (
	FormatStandard     Format = "standard"
	FormatDatapack     Format = "datapack"
	FormatBehaviorPack Format = "behavior_pack"
	FormatCompletePack Format = "complete_pack"
	FormatCustom       Format = "custom"
)

// Format selects an archive layout.
type Format string

// Formats lists every supported layout.
func Formats() []Format {
	return []Format{FormatStandard, FormatDatapack, FormatBehaviorPack, FormatCompletePack, FormatCustom}
}

// ParseFormat validates a client-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.Valid() {
		return "", issue.NewValidationError("Invalid format type")
	}
	return f, nil
}

// Valid reports whether f is a supported layout.
func (f Format) Valid() bool {
	switch f {
	case FormatStandard, FormatDatapack, FormatBehaviorPack, FormatCompletePack, FormatCustom:
		return true
	default:
		return false
	}
}

func (f Format) String() string {
	return string(f)
}

// hasBehaviorPack reports whether the layout ships the BP tree and table recipe.
func (f Format) hasBehaviorPack() bool {
	return f == FormatBehaviorPack || f == FormatCompletePack
}
