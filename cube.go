package vkcube

import (
	"encoding/binary"
	"math"

	lin "github.com/xlab/linmath"
)

// CubeVertexCount is 6 faces of 2 triangles.
const CubeVertexCount = 12 * 3

// UniformSize is the std140 size of the per-frame uniform block: the MVP
// matrix followed by a vec4 position and a vec4 texcoord per vertex.
const UniformSize = 16*4 + CubeVertexCount*4*4*2

var cubePositions = [CubeVertexCount * 3]float32{
	-1, -1, -1, -1, -1, 1, -1, 1, 1, // -X
	-1, 1, 1, -1, 1, -1, -1, -1, -1,
	-1, -1, -1, 1, 1, -1, 1, -1, -1, // -Z
	-1, -1, -1, -1, 1, -1, 1, 1, -1,
	-1, -1, -1, 1, -1, -1, 1, -1, 1, // -Y
	-1, -1, -1, 1, -1, 1, -1, -1, 1,
	-1, 1, -1, -1, 1, 1, 1, 1, 1, // +Y
	-1, 1, -1, 1, 1, 1, 1, 1, -1,
	1, 1, -1, 1, 1, 1, 1, -1, 1, // +X
	1, -1, 1, 1, -1, -1, 1, 1, -1,
	-1, 1, 1, -1, -1, 1, 1, 1, 1, // +Z
	-1, -1, 1, 1, -1, 1, 1, 1, 1,
}

var cubeUVs = [CubeVertexCount * 2]float32{
	0, 1, 1, 1, 1, 0, 1, 0, 0, 0, 0, 1, // -X
	1, 1, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, // -Z
	1, 0, 1, 1, 0, 1, 1, 0, 0, 1, 0, 0, // -Y
	1, 0, 0, 0, 0, 1, 1, 0, 0, 1, 1, 1, // +Y
	1, 0, 0, 0, 0, 1, 0, 1, 1, 1, 1, 0, // +X
	0, 0, 0, 1, 1, 0, 0, 1, 1, 1, 1, 0, // +Z
}

// Animation is driven by the window: SpinAngle degrees are added to the model
// rotation each frame unless Paused.
type Animation struct {
	SpinAngle float32
	Paused    bool
}

// cubeModel holds the camera and the spinning model transform.
type cubeModel struct {
	projection lin.Mat4x4
	view       lin.Mat4x4
	model      lin.Mat4x4
}

func newCubeModel() *cubeModel {
	m := &cubeModel{}
	m.view.LookAt(&lin.Vec3{0, 3, 5}, &lin.Vec3{0, 0, 0}, &lin.Vec3{0, 1, 0})
	m.model.Identity()
	m.setExtent(Extent{Width: 1, Height: 1})
	return m
}

// setExtent rebuilds the projection for a new aspect ratio.
func (m *cubeModel) setExtent(extent Extent) {
	aspect := float32(1)
	if extent.Width > 0 && extent.Height > 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	var gl lin.Mat4x4
	gl.Perspective(lin.DegreesToRadians(45), aspect, 0.1, 100)
	VulkanProjectionMat(&m.projection, &gl)
}

// spin rotates the model around Y.
func (m *cubeModel) spin(degrees float32) {
	var prev lin.Mat4x4
	prev.Dup(&m.model)
	m.model.Rotate(&prev, 0, 1, 0, lin.DegreesToRadians(degrees))
}

func (m *cubeModel) mvp() lin.Mat4x4 {
	var vp, mvp lin.Mat4x4
	vp.Mult(&m.projection, &m.view)
	mvp.Mult(&vp, &m.model)
	return mvp
}

// VulkanProjectionMat converts a GL projection into Vulkan clip space, where
// Y points down and depth spans [0, 1].
func VulkanProjectionMat(m *lin.Mat4x4, proj *lin.Mat4x4) {
	clip := lin.Mat4x4{
		{1, 0, 0, 0},
		{0, -1, 0, 0},
		{0, 0, 0.5, 0},
		{0, 0, 0.5, 1},
	}
	m.Mult(&clip, proj)
}

// encodeUniform writes the whole uniform block.
func encodeUniform(dst []byte, mvp *lin.Mat4x4) {
	encodeMVP(dst, mvp)
	off := 16 * 4
	for i := 0; i < CubeVertexCount; i++ {
		putVec4(dst[off:], cubePositions[i*3], cubePositions[i*3+1], cubePositions[i*3+2], 1)
		off += 16
	}
	for i := 0; i < CubeVertexCount; i++ {
		putVec4(dst[off:], cubeUVs[i*2], cubeUVs[i*2+1], 0, 0)
		off += 16
	}
}

// encodeMVP overwrites the matrix at the head of the uniform block, column by
// column.
func encodeMVP(dst []byte, mvp *lin.Mat4x4) {
	for c := 0; c < 4; c++ {
		putVec4(dst[c*16:], mvp[c][0], mvp[c][1], mvp[c][2], mvp[c][3])
	}
}

func putVec4(dst []byte, x, y, z, w float32) {
	binary.LittleEndian.PutUint32(dst[0:], math.Float32bits(x))
	binary.LittleEndian.PutUint32(dst[4:], math.Float32bits(y))
	binary.LittleEndian.PutUint32(dst[8:], math.Float32bits(z))
	binary.LittleEndian.PutUint32(dst[12:], math.Float32bits(w))
}
