package kv

import (
	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
)

// h3Entry is one vertex stored in an h3 cell bucket.
type h3Entry struct {
	Index uint32
	ID    int64
	Lat   float64
	Lon   float64
}

type h3Meta struct {
	Resolution  int
	NumVertices int
	NumCells    int
}

func encodeBucket(entries []h3Entry) ([]byte, error) {
	bb, err := binary.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return compress(bb)
}

func decodeBucket(bbCompressed []byte) ([]h3Entry, error) {
	bb, err := decompress(bbCompressed)
	if err != nil {
		return nil, err
	}
	var entries []h3Entry
	err = binary.Unmarshal(bb, &entries)
	return entries, err
}

func encodeMeta(m h3Meta) ([]byte, error) {
	return binary.Marshal(m)
}

func decodeMeta(bb []byte) (h3Meta, error) {
	var m h3Meta
	err := binary.Unmarshal(bb, &m)
	return m, err
}

func compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}

	return bb, nil
}
