package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUVertex is the interleaved vertex layout the geometry pipelines read.
// Size: 24 bytes (position at @location(0), normal at @location(1)).
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: unit normal (12 bytes)
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Name         string
	GPUVertices  []GPUVertex
	TriangleList []uint32
}

// Vertices returns the vertex data flattened to interleaved floats.
func (m *Mesh) Vertices() []float32 {
	out := make([]float32, 0, len(m.GPUVertices)*6)
	for _, v := range m.GPUVertices {
		out = append(out, v.Position[0], v.Position[1], v.Position[2], v.Normal[0], v.Normal[1], v.Normal[2])
	}
	return out
}

// Indices returns the triangle list.
func (m *Mesh) Indices() []uint32 {
	return m.TriangleList
}

// Triangles returns the number of triangles in the mesh.
func (m *Mesh) Triangles() int {
	return len(m.TriangleList) / 3
}

// ComputeBoundingRadius calculates the maximum distance of any vertex from the origin.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []GPUVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

var (
	icosahedronVertices = func() []mgl32.Vec3 {
		t := float32((1 + math.Sqrt(5)) / 2)
		return []mgl32.Vec3{
			{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
			{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
			{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
		}
	}()

	icosahedronFaces = [20][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
)

// Icosahedron builds a sphere-like mesh by splitting every edge of an icosahedron into
// detail+1 segments and projecting the result onto a sphere. Each face keeps its own
// vertices, so the mesh has 20*(detail+1)^2 triangles. Normals point away from the origin
// and triangles wind counter-clockwise seen from outside.
//
// Parameters:
//   - radius: the sphere radius; values <= 0 are treated as 1
//   - detail: the number of extra subdivisions per edge; negative values are treated as 0
//
// Returns:
//   - *Mesh: the generated mesh
func Icosahedron(radius float32, detail int) *Mesh {
	if radius <= 0 {
		radius = 1
	}
	detail = max(detail, 0)
	cols := detail + 1

	perFace := (cols + 1) * (cols + 2) / 2
	m := &Mesh{
		Name:         "icosahedron",
		GPUVertices:  make([]GPUVertex, 0, 20*perFace),
		TriangleList: make([]uint32, 0, 20*cols*cols*3),
	}

	for _, face := range icosahedronFaces {
		a, b, c := icosahedronVertices[face[0]], icosahedronVertices[face[1]], icosahedronVertices[face[2]]

		// grid[i][j] indexes into m.GPUVertices; row i has cols-i+1 entries.
		grid := make([][]uint32, cols+1)
		for i := 0; i <= cols; i++ {
			f := float32(i) / float32(cols)
			aj := lerpVec(a, c, f)
			bj := lerpVec(b, c, f)
			rows := cols - i
			grid[i] = make([]uint32, rows+1)
			for j := 0; j <= rows; j++ {
				p := aj
				if rows > 0 {
					p = lerpVec(aj, bj, float32(j)/float32(rows))
				}
				n := p.Normalize()
				grid[i][j] = uint32(len(m.GPUVertices))
				m.GPUVertices = append(m.GPUVertices, GPUVertex{
					Position: n.Mul(radius),
					Normal:   n,
				})
			}
		}

		for i := 0; i < cols; i++ {
			for j := 0; j < 2*(cols-i)-1; j++ {
				k := j / 2
				if j%2 == 0 {
					m.addTriangle(grid[i][k+1], grid[i+1][k], grid[i][k])
				} else {
					m.addTriangle(grid[i][k+1], grid[i+1][k+1], grid[i+1][k])
				}
			}
		}
	}
	return m
}

// addTriangle appends a triangle, flipping it if it would face the origin.
func (m *Mesh) addTriangle(i0, i1, i2 uint32) {
	p0 := mgl32.Vec3(m.GPUVertices[i0].Position)
	p1 := mgl32.Vec3(m.GPUVertices[i1].Position)
	p2 := mgl32.Vec3(m.GPUVertices[i2].Position)
	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	if normal.Dot(p0.Add(p1).Add(p2)) < 0 {
		i1, i2 = i2, i1
	}
	m.TriangleList = append(m.TriangleList, i0, i1, i2)
}

func lerpVec(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}
