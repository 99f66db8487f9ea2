// SPDX-License-Identifier: MPL-2.0

// Package pack assembles rendered recipe artifacts into distributable zip
// archives.
//
// Five layouts are supported:
//
//	standard       {file}
//	datapack       data/duplicating/recipes/{file} + pack.mcmeta
//	behavior_pack  Duplicating Table BP/recipes/{file} + manifest, block, icon
//	complete_pack  behavior_pack + Duplicating Table RP/...
//	custom         {category}/{file} + README.md
//
// Assembly is a fold over the item list: one item failing to render is
// logged and counted, it never aborts the batch. Optional binary assets
// (pack icon, block textures) are read best effort. Archives are published
// with a write-temp-then-rename so readers never observe a partial file.
package pack
