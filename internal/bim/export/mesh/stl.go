package mesh

import (
	"bufio"
	"fmt"
	"io"
)

// STLMediaType is the content type served for STL downloads.
const STLMediaType = "model/stl"

// WriteSTL writes m as an ASCII STL solid.
func WriteSTL(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)
	name := m.Name
	if name == "" {
		name = "mesh"
	}
	fmt.Fprintf(bw, "solid %s\n", name)
	for t := 0; t < m.TriangleCount(); t++ {
		i0 := m.Indices[t*3]
		fmt.Fprintf(bw, "  facet normal %g %g %g\n    outer loop\n",
			m.Normals[i0*3], m.Normals[i0*3+1], m.Normals[i0*3+2])
		for k := 0; k < 3; k++ {
			v := m.Indices[t*3+k] * 3
			fmt.Fprintf(bw, "      vertex %g %g %g\n", m.Vertices[v], m.Vertices[v+1], m.Vertices[v+2])
		}
		bw.WriteString("    endloop\n  endfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}
