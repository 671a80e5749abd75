package util

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func cmpInt(a, b int) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}

func TestBinarySearch(t *testing.T) {
	arr := []int{-100, -1, 1, 2, 3, 4, 10, 20, 100, 5555}

	testCases := []struct {
		name      string
		target    int
		wantPos   int
		wantFound bool
	}{
		{name: "first", target: -100, wantPos: 0, wantFound: true},
		{name: "last", target: 5555, wantPos: 9, wantFound: true},
		{name: "middle", target: 10, wantPos: 6, wantFound: true},
		{name: "missing below", target: -1000, wantPos: 0, wantFound: false},
		{name: "missing between", target: 5, wantPos: 6, wantFound: false},
		{name: "missing above", target: 9999, wantPos: 10, wantFound: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pos, found := BinarySearch(arr, tc.target, cmpInt)
			assert.Equal(t, tc.wantPos, pos)
			assert.Equal(t, tc.wantFound, found)
		})
	}

	_, found := BinarySearch([]int{}, 1, cmpInt)
	assert.False(t, found)
}

func TestReverseG(t *testing.T) {
	arr := []int{1, 2, 3, 4}
	rev := ReverseG(arr)
	assert.Equal(t, []int{4, 3, 2, 1}, rev)
	assert.Equal(t, []int{1, 2, 3, 4}, arr)
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 1.235, RoundFloat(1.23456, 3))
	assert.Equal(t, 2.0, RoundFloat(1.96, 0))
}

func TestWrapErrorf(t *testing.T) {
	orig := errors.New("vertex 10 unreachable")
	err := WrapErrorf(orig, ErrNotFound, "no route found from %d to %d", 1, 10)

	assert.Equal(t, "no route found from 1 to 10: vertex 10 unreachable", err.Error())
	assert.ErrorIs(t, err, orig)
	assert.Equal(t, ErrNotFound, ErrorCodeOf(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, ErrNotFound, ErrorCodeOf(wrapped))
	assert.Equal(t, ErrUnknown, ErrorCodeOf(orig))

	var uerr *Error
	assert.True(t, errors.As(wrapped, &uerr))
	assert.Equal(t, "no route found from 1 to 10", uerr.Message())
	assert.Equal(t, "not_found", uerr.Code().String())
}
