// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"path"
	"strings"
)

const (
	// BehaviorPackRoot is the top-level folder of the behavior pack.
	BehaviorPackRoot = "Duplicating Table BP"
	// ResourcePackRoot is the top-level folder of the resource pack.
	ResourcePackRoot = "Duplicating Table RP"

	datapackRecipeDir = "data/duplicating/recipes"
	// TableRecipeName is the file name of the duplicating table crafting recipe.
	TableRecipeName = "duplicating_table.json"

	PathPackMcmeta   = "pack.mcmeta"
	PathReadme       = "README.md"
	PathBPManifest   = BehaviorPackRoot + "/manifest.json"
	PathBPBlock      = BehaviorPackRoot + "/blocks/duplicating_table.json"
	PathBPIcon       = BehaviorPackRoot + "/pack_icon.png"
	PathRPManifest   = ResourcePackRoot + "/manifest.json"
	PathRPBlocks     = ResourcePackRoot + "/blocks.json"
	PathRPLanguages  = ResourcePackRoot + "/texts/languages.json"
	PathRPLang       = ResourcePackRoot + "/texts/en_US.lang"
	PathRPTerrain    = ResourcePackRoot + "/textures/terrain_texture.json"
	PathRPGeometry   = ResourcePackRoot + "/models/blocks/duplicating_table.geo.json"
	PathRPIcon       = ResourcePackRoot + "/pack_icon.png"
	rpTextureDir     = ResourcePackRoot + "/textures/blocks"
	texturePrefix    = "duplicating_table_"
	textureExtension = ".png"
)

// TextureFaces are the block faces that ship a texture, in archive order.
var TextureFaces = []string{"front", "side", "top"}

// RecipePath places an artifact file inside the archive for format.
func RecipePath(format Format, item, file string) string {
	switch format {
	case FormatDatapack:
		return path.Join(datapackRecipeDir, file)
	case FormatBehaviorPack, FormatCompletePack:
		return path.Join(BehaviorPackRoot, "recipes", file)
	case FormatCustom:
		return path.Join(Category(item), file)
	default:
		return file
	}
}

// TableRecipePath is where the table recipe goes for format.
func TableRecipePath(format Format) string {
	if format.hasBehaviorPack() {
		return path.Join(BehaviorPackRoot, "recipes", TableRecipeName)
	}
	return TableRecipeName
}

// TextureFile is the on-disk and in-archive file name of a face texture.
func TextureFile(face string) string {
	return texturePrefix + face + textureExtension
}

// TexturePath is the archive path of a face texture.
func TexturePath(face string) string {
	return rpTextureDir + "/" + TextureFile(face)
}

// categoryRules are checked in order; the first keyword found wins.
var categoryRules = []struct {
	name     string
	keywords []string
}{
	{"ores", []string{"ore", "raw_"}},
	{"metals", []string{"ingot", "nugget"}},
	{"wood", []string{"wood", "log", "plank"}},
	{"stone", []string{"stone", "cobble", "granite", "diorite"}},
	{"gems", []string{"diamond", "emerald", "ruby", "sapphire"}},
	{"food", []string{"food", "bread", "meat", "apple"}},
}

// CategoryMisc collects items no rule matched.
const CategoryMisc = "misc"

// Category picks the custom-layout folder for item by substring match.
// Matching is plain substring, so "stone_pickaxe" lands in stone and
// "glowstone_dust" in stone as well.
func Category(item string) string {
	lower := strings.ToLower(item)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.name
			}
		}
	}
	return CategoryMisc
}

// Categories lists category folder names in rule order, misc last.
func Categories() []string {
	out := make([]string, 0, len(categoryRules)+1)
	for _, r := range categoryRules {
		out = append(out, r.name)
	}
	return append(out, CategoryMisc)
}
