package broker

// Recorder receives delivery counters from the broker goroutine. Calls must
// not block.
type Recorder interface {
	Published(topic string)
	Delivered(topic string, n int)
	Dropped(topic string, n int)
	Evicted()
}

type nopRecorder struct{}

func (nopRecorder) Published(string)      {}
func (nopRecorder) Delivered(string, int) {}
func (nopRecorder) Dropped(string, int)   {}
func (nopRecorder) Evicted()              {}
