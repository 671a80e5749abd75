package geo

import (
	"testing"

	"github.com/lintang-b-s/routingapi/pkg/datastructure"
	"github.com/stretchr/testify/assert"
)

func TestDouglasPecker(t *testing.T) {
	lineCoords := []datastructure.Coordinate{
		{Lat: -7.565837, Lon: 110.831586},
		{Lat: -7.566063, Lon: 110.832379},
		{Lat: -7.566406, Lon: 110.833232},
	}

	simplified := RamesDouglasPeucker(lineCoords, DOUGLAS_PEUCKER_THRESHOLDS)
	assert.Len(t, simplified, 2)
	assert.Equal(t, lineCoords[0], simplified[0])
	assert.Equal(t, lineCoords[2], simplified[1])

	// a 1 km detour is kept
	detour := []datastructure.Coordinate{
		{Lat: 0, Lon: 0},
		{Lat: 0.01, Lon: 0.005},
		{Lat: 0, Lon: 0.01},
	}
	assert.Len(t, RamesDouglasPeucker(detour, DOUGLAS_PEUCKER_THRESHOLDS), 3)
}
