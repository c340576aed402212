package graph

import (
	"encoding/binary"
	"github.com/minio/highwayhash"
)

var key = []byte("0123456789ABCDEF0123456789ABCDEF")

// Hash returns 64-bit highway hash of data
func Hash(data []byte) (uint64, error) {
	hash, err := highwayhash.New64(key)
	if err != nil {
		return 0, err
	}
	_, err = hash.Write(data)
	return hash.Sum64(), err
}

// Fingerprint hashes the graph shape (kinds, lines and successor slots); counters recorded against
// a graph can only be merged into a graph with the same fingerprint
func (g *Graph) Fingerprint() (uint64, error) {
	if g.IsEmpty() {
		return 0, nil
	}
	buf := make([]byte, 0, 16*len(g.Nodes))
	for _, node := range g.Nodes {
		buf = append(buf, byte(node.Kind))
		buf = binary.AppendVarint(buf, int64(node.Line))
		buf = binary.AppendVarint(buf, int64(node.Goto))
		buf = binary.AppendUvarint(buf, uint64(len(node.Next)))
		for _, next := range node.Next {
			buf = binary.AppendVarint(buf, int64(next))
		}
	}
	return Hash(buf)
}
