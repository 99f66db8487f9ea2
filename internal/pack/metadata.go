// SPDX-License-Identifier: MPL-2.0

package pack

import (
	"encoding/json"
	"fmt"
)

const (
	packName       = "Duplicating Table"
	packAuthor     = "foamwrap"
	blockID        = "duplicatingtable:duplicating_table"
	blockGeometry  = "geometry.duplicating_table"
	datapackFormat = 10

	bpHeaderUUID = "3c96e59a-8381-4ead-9e5a-4ce147c137fb"
	bpModuleUUID = "6a1e005c-2b3f-4b68-b9f0-cea14fea6205"
	rpHeaderUUID = "00f04670-f5ca-4fe3-8d07-67526b3e343b"
	rpModuleUUID = "a39fb2ce-c028-44df-8749-09e4e71d9c48"

	languagesJSON = "[\n\t\"en_US\"\n]"
	enUSLang      = "tile." + blockID + ".name=" + packName
)

// tableRecipe is the shaped crafting recipe for the duplicating table itself:
// eight iron ingots around a crafting table.
const tableRecipe = `{
    "format_version": "1.12",
    "minecraft:recipe_shaped": {
        "description": {
            "identifier": "duplicatingtable:duplicating_table"
        },
        "tags": [
            "crafting_table"
        ],
        "pattern": [
            "iii",
            "iCi",
            "iii"
        ],
        "key": {
            "i": {
                "item": "minecraft:iron_ingot"
            },
            "C": {
                "item": "minecraft:crafting_table"
            }
        },
        "result": {
            "item": "duplicatingtable:duplicating_table",
            "count": 1
        }
    }
}`

var packVersion = [3]int{3, 0, 1}

type (
	manifest struct {
		FormatVersion int                  `json:"format_version"`
		Metadata      manifestMetadata     `json:"metadata"`
		Header        manifestHeader       `json:"header"`
		Modules       []manifestModule     `json:"modules"`
		Dependencies  []manifestDependency `json:"dependencies"`
	}

	manifestMetadata struct {
		Authors []string `json:"authors"`
	}

	manifestHeader struct {
		Name             string `json:"name"`
		Description      string `json:"description"`
		MinEngineVersion [3]int `json:"min_engine_version"`
		UUID             string `json:"uuid"`
		Version          [3]int `json:"version"`
	}

	manifestModule struct {
		Type    string `json:"type"`
		UUID    string `json:"uuid"`
		Version [3]int `json:"version"`
	}

	manifestDependency struct {
		UUID    string `json:"uuid"`
		Version [3]int `json:"version"`
	}

	obj = map[string]any
)

func newManifest(headerUUID, moduleType, moduleUUID, dependencyUUID string) manifest {
	return manifest{
		FormatVersion: 2,
		Metadata:      manifestMetadata{Authors: []string{packAuthor}},
		Header: manifestHeader{
			Name:             packName,
			Description:      "By " + packAuthor,
			MinEngineVersion: [3]int{1, 20, 60},
			UUID:             headerUUID,
			Version:          packVersion,
		},
		Modules:      []manifestModule{{Type: moduleType, UUID: moduleUUID, Version: packVersion}},
		Dependencies: []manifestDependency{{UUID: dependencyUUID, Version: packVersion}},
	}
}

// behaviorManifest and resourceManifest depend on each other by header UUID.
func behaviorManifest() manifest {
	return newManifest(bpHeaderUUID, "data", bpModuleUUID, rpHeaderUUID)
}

func resourceManifest() manifest {
	return newManifest(rpHeaderUUID, "resources", rpModuleUUID, bpHeaderUUID)
}

func packMcmeta() obj {
	return obj{"pack": obj{
		"pack_format": datapackFormat,
		"description": "Duplication Recipes Datapack",
	}}
}

func blockDefinition() obj {
	cube := []int{16, 16, 16}
	origin := []int{-8, 0, -8}
	opaque := func(texture string) obj {
		return obj{"texture": texture, "render_method": "opaque"}
	}

	rotations := []struct {
		dir string
		y   int
	}{{"south", 0}, {"east", 90}, {"west", -90}, {"north", 180}}
	permutations := make([]obj, 0, len(rotations))
	for _, r := range rotations {
		permutations = append(permutations, obj{
			"condition":  fmt.Sprintf("query.block_state('minecraft:cardinal_direction')=='%s'", r.dir),
			"components": obj{"minecraft:transformation": obj{"rotation": []int{0, r.y, 0}}},
		})
	}

	return obj{
		"format_version": "1.20.60",
		"minecraft:block": obj{
			"description": obj{
				"identifier":      blockID,
				"menu_category":   obj{"category": "equipment"},
				"is_experimental": false,
				"traits": obj{
					"minecraft:placement_direction": obj{
						"enabled_states": []string{"minecraft:cardinal_direction"},
					},
				},
			},
			"components": obj{
				"minecraft:crafting_table": obj{
					"crafting_tags": []string{"duplicating_table"},
					"grid_size":     3,
					"table_name":    "Duplicating",
				},
				"minecraft:collision_box": obj{"size": cube, "origin": origin},
				"minecraft:geometry":      blockGeometry,
				"minecraft:material_instances": obj{
					"up":    opaque("dt_top"),
					"*":     opaque("dt_side"),
					"north": opaque("dt_front"),
				},
				"minecraft:flammable":                 true,
				"minecraft:destructible_by_mining":    obj{"seconds_to_destroy": 1},
				"minecraft:destructible_by_explosion": obj{"explosion_resistance": 7.5},
				"minecraft:selection_box":             obj{"origin": origin, "size": cube},
			},
			"permutations": permutations,
		},
	}
}

func resourceBlocks() obj {
	return obj{
		"format_version": []int{1, 1, 0},
		"duplicatingtable:duplicatingtable": obj{
			"sound":    "wood",
			"textures": obj{"up": "dt_top", "side": "dt_side"},
		},
	}
}

func terrainTexture() obj {
	data := obj{}
	for _, face := range TextureFaces {
		data["dt_"+face] = obj{"textures": "textures/blocks/" + texturePrefix + face}
	}
	return obj{
		"num_mip_levels":     4,
		"padding":            8,
		"resource_pack_name": packName,
		"texture_name":       "atlasd.terrain",
		"texture_data":       data,
	}
}

func blockGeometryModel() obj {
	side := func(face string) obj {
		return obj{"uv": []int{0, 0}, "uv_size": []int{16, 16}, "material_instance": face}
	}
	flipped := func(face string) obj {
		return obj{"uv": []int{16, 16}, "uv_size": []int{-16, -16}, "material_instance": face}
	}

	return obj{
		"format_version": "1.12.0",
		"minecraft:geometry": []obj{{
			"description": obj{
				"identifier":            blockGeometry,
				"texture_width":         16,
				"texture_height":        16,
				"visible_bounds_width":  2,
				"visible_bounds_height": 2.5,
				"visible_bounds_offset": []float64{0, 0.75, 0},
			},
			"bones": []obj{{
				"name":  "root",
				"pivot": []int{0, 0, 0},
				"cubes": []obj{{
					"origin": []int{-8, 0, -8},
					"size":   []int{16, 16, 16},
					"uv": obj{
						"north": side("north"),
						"east":  side("east"),
						"south": side("south"),
						"west":  side("west"),
						"up":    flipped("up"),
						"down":  flipped("down"),
					},
				}},
			}},
		}},
	}
}

func marshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func marshalCompact(v any) ([]byte, error) {
	return json.Marshal(v)
}
