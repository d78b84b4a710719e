package workers

import "sync/atomic"

// fakeDelivery records how the worker resolved one queue item.
type fakeDelivery struct {
	data   []byte
	acked  atomic.Bool
	termed atomic.Bool
}

func newFakeDelivery(data []byte) *fakeDelivery {
	return &fakeDelivery{data: data}
}

func (d *fakeDelivery) Data() []byte { return d.data }

func (d *fakeDelivery) Ack() error {
	d.acked.Store(true)
	return nil
}

func (d *fakeDelivery) Term() error {
	d.termed.Store(true)
	return nil
}
