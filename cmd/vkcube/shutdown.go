package main

import "sync"

// shutdown hands an exit request from the closer goroutine to the render
// loop, which owns every glfw and Vulkan call.
type shutdown struct {
	exitC    chan struct{}
	doneC    chan struct{}
	doneOnce sync.Once
}

func newShutdown() *shutdown {
	return &shutdown{
		exitC: make(chan struct{}, 1),
		doneC: make(chan struct{}),
	}
}

// request asks the loop to stop and blocks until it has cleaned up. It is
// bound to closer, so it runs on a signal or on closer.Close.
func (s *shutdown) request() {
	select {
	case s.exitC <- struct{}{}:
	default:
	}
	<-s.doneC
}

// requested reports whether request has been called.
func (s *shutdown) requested() bool {
	select {
	case <-s.exitC:
		return true
	default:
		return false
	}
}

// done releases request once cleanup has finished on the main thread.
func (s *shutdown) done() {
	s.doneOnce.Do(func() { close(s.doneC) })
}
