package vkcube

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

//go:generate glslangValidator -V shaders/cube.vert -o shaders/cube.vert.spv
//go:generate glslangValidator -V shaders/cube.frag -o shaders/cube.frag.spv

// TexturePixels is a tightly packed RGBA8 image.
type TexturePixels struct {
	Width  uint32
	Height uint32
	RGBA   []byte
}

// Assets are the static inputs of the pipeline: SPIR-V shader modules and
// the textures sampled by the fragment stage.
type Assets struct {
	VertexShader   []byte
	FragmentShader []byte
	Textures       []TexturePixels
}

// LoadAssets reads cube.vert.spv and cube.frag.spv from dir and fills count
// texture slots with checkerboards.
func LoadAssets(dir string, count int) (Assets, error) {
	vert, err := os.ReadFile(filepath.Join(dir, "cube.vert.spv"))
	if err != nil {
		return Assets{}, errors.Wrap(err, "load vertex shader")
	}
	frag, err := os.ReadFile(filepath.Join(dir, "cube.frag.spv"))
	if err != nil {
		return Assets{}, errors.Wrap(err, "load fragment shader")
	}
	a := Assets{VertexShader: vert, FragmentShader: frag}
	for i := 0; i < count; i++ {
		a.Textures = append(a.Textures, Checkerboard(256, uint32(32>>uint(i%3))))
	}
	return a, nil
}

// Checkerboard draws a size x size board of cell pixel squares.
func Checkerboard(size, cell uint32) TexturePixels {
	if cell == 0 {
		cell = 1
	}
	px := TexturePixels{Width: size, Height: size, RGBA: make([]byte, size*size*4)}
	for y := uint32(0); y < size; y++ {
		for x := uint32(0); x < size; x++ {
			c := byte(0x30)
			if (x/cell+y/cell)%2 == 0 {
				c = 0xe0
			}
			o := (y*size + x) * 4
			px.RGBA[o], px.RGBA[o+1], px.RGBA[o+2], px.RGBA[o+3] = c, c, c, 0xff
		}
	}
	return px
}
