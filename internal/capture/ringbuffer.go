// ABOUTME: Thread-safe circular buffer for captured samples
// ABOUTME: The device callback writes, the chunk ticker reads
package capture

import "sync"

// RingBuffer holds interleaved samples between the device thread and the
// ticker. Writes beyond capacity are dropped.
type RingBuffer struct {
	buffer   []int16
	readPos  int
	writePos int
	size     int
	count    int // Number of samples currently in buffer
	mu       sync.Mutex
}

// NewRingBuffer creates a ring buffer with given capacity (in samples)
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{
		buffer: make([]int16, capacity),
		size:   capacity,
	}
}

// Write adds samples and returns how many fit
func (rb *RingBuffer) Write(samples []int16) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for i := 0; i < len(samples) && rb.count < rb.size; i++ {
		rb.buffer[rb.writePos] = samples[i]
		rb.writePos = (rb.writePos + 1) % rb.size
		rb.count++
		written++
	}
	return written
}

// ReadMultiple removes the largest whole multiple of step samples
// available. Returns nil when less than step is buffered.
func (rb *RingBuffer) ReadMultiple(step int) []int16 {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := (rb.count / step) * step
	if n == 0 {
		return nil
	}

	out := make([]int16, n)
	for i := range out {
		out[i] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
	}
	rb.count -= n
	return out
}

// Available returns the number of samples available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}
