// Package shaders provides embedded GLSL shader sources.
package shaders

import (
	_ "embed"
	"strings"
)

// terrainVertexBody is shared by both patch renderers. It reads the per-patch vec4 either from
// an instanced attribute or from a uniform, depending on INSTANCED.
//
//go:embed terrain.vert
var terrainVertexBody string

// TerrainFragmentShader shades terrain patches.
//
//go:embed terrain.frag
var TerrainFragmentShader string

// LinesVertexShader is the vertex shader for colored debug lines.
//
//go:embed lines.vert
var LinesVertexShader string

// LinesFragmentShader is the fragment shader for colored debug lines.
//
//go:embed lines.frag
var LinesFragmentShader string

// TerrainVertexShader returns the patch vertex shader for the instanced or per-draw path.
func TerrainVertexShader(instanced bool) string {
	version, body, _ := strings.Cut(terrainVertexBody, "\n")
	if instanced {
		return version + "\n#define INSTANCED 1\n" + body
	}
	return version + "\n" + body
}
