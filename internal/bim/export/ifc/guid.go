package ifc

import (
	"fmt"

	"github.com/google/uuid"
)

const guidAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_$"

// CompressGUID encodes a UUID as the 22 character IFC GlobalId: the two
// most significant bits, then twenty-one 6-bit groups.
func CompressGUID(u uuid.UUID) string {
	var out [22]byte
	pos := 0
	read := func(n int) int {
		v := 0
		for k := 0; k < n; k++ {
			bit := int(u[pos/8]>>(7-uint(pos%8))) & 1
			v = v<<1 | bit
			pos++
		}
		return v
	}
	out[0] = guidAlphabet[read(2)]
	for i := 1; i < len(out); i++ {
		out[i] = guidAlphabet[read(6)]
	}
	return string(out[:])
}

// guidSource derives GlobalIds. With a namespace the ids are stable
// SHA-1 UUIDs of the element path; without one they are random.
type guidSource struct {
	ns uuid.UUID
}

func (g guidSource) next(path string, args ...any) string {
	if g.ns == uuid.Nil {
		return CompressGUID(uuid.New())
	}
	return CompressGUID(uuid.NewSHA1(g.ns, []byte(fmt.Sprintf(path, args...))))
}
