package vkcube

import "github.com/pkg/errors"

// syncSlot is one frame in flight.
type syncSlot struct {
	// Fence is signaled when the slot's graphics submission has retired.
	Fence        Fence
	Acquired     Semaphore
	DrawComplete Semaphore
	// OwnershipReleased is only created for a separate present queue.
	OwnershipReleased Semaphore
}

// syncRing paces the CPU against the GPU. It outlives swapchain generations
// and is only destroyed at exit.
type syncRing struct {
	slots [FrameLag]syncSlot
	frame uint64
}

func newSyncRing(d Driver, separate bool) (_ *syncRing, err error) {
	ring := &syncRing{}
	defer func() {
		if err != nil {
			ring.destroy(d)
		}
	}()
	for i := range ring.slots {
		slot := &ring.slots[i]
		// Signaled so the first wait on every slot returns at once.
		if slot.Fence, err = d.CreateFence(true); err != nil {
			return nil, errors.Wrap(err, "create frame fence")
		}
		if slot.Acquired, err = d.CreateSemaphore(); err != nil {
			return nil, errors.Wrap(err, "create acquire semaphore")
		}
		if slot.DrawComplete, err = d.CreateSemaphore(); err != nil {
			return nil, errors.Wrap(err, "create draw semaphore")
		}
		if separate {
			if slot.OwnershipReleased, err = d.CreateSemaphore(); err != nil {
				return nil, errors.Wrap(err, "create ownership semaphore")
			}
		}
	}
	return ring, nil
}

func (r *syncRing) index() int {
	return int(r.frame % FrameLag)
}

func (r *syncRing) current() *syncSlot {
	return &r.slots[r.index()]
}

func (r *syncRing) advance() {
	r.frame++
}

// destroy releases every object of the ring. The device must be idle.
func (r *syncRing) destroy(d Driver) {
	for i := range r.slots {
		slot := &r.slots[i]
		if slot.Fence != 0 {
			d.DestroyFence(slot.Fence)
		}
		for _, sem := range []Semaphore{slot.Acquired, slot.DrawComplete, slot.OwnershipReleased} {
			if sem != 0 {
				d.DestroySemaphore(sem)
			}
		}
		*slot = syncSlot{}
	}
}
