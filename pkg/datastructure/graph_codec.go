package datastructure

import (
	"fmt"

	"github.com/kelindar/binary"
)

type graphSnapshot struct {
	Vertices []Vertex
	Edges    []EdgeInput
}

// EncodeGraph serializes g into a zstd compressed snapshot.
func EncodeGraph(g *Graph) ([]byte, error) {
	vs, es := g.Inputs()
	raw, err := binary.Marshal(&graphSnapshot{Vertices: vs, Edges: es})
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return CompressData(raw)
}

// DecodeGraph rebuilds a graph from a snapshot written by EncodeGraph.
func DecodeGraph(data []byte) (*Graph, error) {
	raw, err := DecompressData(data)
	if err != nil {
		return nil, fmt.Errorf("decompress graph: %w", err)
	}
	var snap graphSnapshot
	if err := binary.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	return NewGraph(snap.Vertices, snap.Edges)
}
