package capture_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/networkteam/fogonqa/capture"
)

func TestRingBuffer_Basic(t *testing.T) {
	rb := capture.NewRingBuffer[string](3)

	assert.Equal(t, uint64(0), rb.Size())
	assert.Equal(t, uint64(3), rb.Capacity())
	assert.Empty(t, rb.All())

	rb.Add("data1")
	assert.Equal(t, uint64(1), rb.Size())
	assert.Equal(t, []string{"data1"}, rb.Last(1))

	rb.Add("data2")
	rb.Add("data3")

	assert.Equal(t, uint64(3), rb.Size())
	assert.Equal(t, []string{"data1", "data2", "data3"}, rb.Last(3))
	assert.Equal(t, []string{"data2", "data3"}, rb.Last(2))
	assert.Equal(t, uint64(0), rb.Dropped())
}

func TestRingBuffer_Overwrite(t *testing.T) {
	rb := capture.NewRingBuffer[string](3)

	rb.Add("data1")
	rb.Add("data2")
	rb.Add("data3")
	rb.Add("data4")

	assert.Equal(t, uint64(3), rb.Size())
	assert.Equal(t, []string{"data2", "data3", "data4"}, rb.All())

	rb.Add("data5")
	rb.Add("data6")

	assert.Equal(t, []string{"data4", "data5", "data6"}, rb.All())
	assert.Equal(t, uint64(3), rb.Dropped())
}

func TestRingBuffer_LastMoreThanSize(t *testing.T) {
	rb := capture.NewRingBuffer[int](5)
	rb.Add(1)
	rb.Add(2)

	assert.Equal(t, []int{1, 2}, rb.Last(10))
}

func TestRingBuffer_ZeroCapacityPanics(t *testing.T) {
	assert.Panics(t, func() {
		capture.NewRingBuffer[int](0)
	})
}

func TestRingBuffer_Concurrent(t *testing.T) {
	rb := capture.NewRingBuffer[int](100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rb.Add(base*100 + j)
				_ = rb.Last(10)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint64(100), rb.Size())
	assert.Equal(t, uint64(400), rb.Dropped())
}
