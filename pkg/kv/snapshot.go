package kv

import (
	"errors"
	"fmt"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
)

const SnapshotKey = "graph:snapshot"

func SaveGraph(store Store, g *datastructure.Graph) error {
	data, err := datastructure.EncodeGraph(g)
	if err != nil {
		return fmt.Errorf("kv: encode graph: %w", err)
	}
	return store.Set([]byte(SnapshotKey), data)
}

func LoadGraph(store Store) (*datastructure.Graph, error) {
	data, err := store.Get([]byte(SnapshotKey))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, fmt.Errorf("kv: no graph snapshot under %q: %w", SnapshotKey, err)
	}
	if err != nil {
		return nil, err
	}
	return datastructure.DecodeGraph(data)
}
