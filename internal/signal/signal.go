package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// interruptChannel is used to receive SIGINT (Ctrl+C) and SIGTERM signals.
var interruptChannel chan os.Signal

// addHandlerChannel is used to add an interrupt handler to the list of handlers
// to be invoked on shutdown.
var addHandlerChannel = make(chan func())

// InterruptHandlersDone is closed after all interrupt handlers run the first
// time an interrupt is signaled.
var InterruptHandlersDone = make(chan struct{})

var simulateInterruptChannel = make(chan struct{}, 1)

var startOnce sync.Once

var signals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SimulateInterrupt requests invoking the clean termination process by an
// internal component instead of a signal.
func SimulateInterrupt() {
	start()
	select {
	case simulateInterruptChannel <- struct{}{}:
	default:
	}
}

// mainInterruptHandler waits for a shutdown request and invokes the registered
// callbacks in LIFO order. It must be run as a goroutine.
func mainInterruptHandler() {
	var interruptCallbacks []func()
	invokeCallbacks := func() {
		for i := range interruptCallbacks {
			idx := len(interruptCallbacks) - 1 - i
			interruptCallbacks[idx]()
		}
		close(InterruptHandlersDone)
	}

	for {
		select {
		case <-interruptChannel:
			invokeCallbacks()
			return
		case <-simulateInterruptChannel:
			invokeCallbacks()
			return
		case handler := <-addHandlerChannel:
			interruptCallbacks = append(interruptCallbacks, handler)
		}
	}
}

func start() {
	startOnce.Do(func() {
		interruptChannel = make(chan os.Signal, 1)
		signal.Notify(interruptChannel, signals...)
		go mainInterruptHandler()
	})
}

// AddInterruptHandler adds a handler to call on shutdown.
func AddInterruptHandler(handler func()) {
	start()
	addHandlerChannel <- handler
}

// Context returns a context that is cancelled by an interrupt handler.
// Handlers run in LIFO order, so the cancel fires before any handler
// registered earlier.
func Context(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	AddInterruptHandler(cancel)
	return ctx
}

// InterruptRequested returns true once the interrupt handlers have run.
func InterruptRequested() bool {
	select {
	case <-InterruptHandlersDone:
		return true
	default:
	}
	return false
}
