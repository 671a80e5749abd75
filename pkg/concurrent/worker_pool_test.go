package concurrent

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool(t *testing.T) {
	wp := NewWorkerPool[int, int](4, 100)
	for i := 0; i < 100; i++ {
		wp.AddJob(i)
	}
	wp.Close()
	wp.Start(func(job int) int {
		return job * job
	})
	wp.Wait()

	got := []int{}
	for r := range wp.CollectResults() {
		got = append(got, r)
	}
	sort.Ints(got)

	assert.Len(t, got, 100)
	assert.Equal(t, 0, got[0])
	assert.Equal(t, 99*99, got[99])
}
