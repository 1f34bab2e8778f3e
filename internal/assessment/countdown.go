package assessment

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Countdown owns the single periodic tick of a running exam. Stop is safe to
// call from inside the tick callback and more than once.
type Countdown struct {
	ticker   clock.Ticker
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartCountdown begins ticking every interval until Stop is called.
func StartCountdown(clk clock.WithTicker, interval time.Duration, onTick func(*Countdown)) *Countdown {
	c := &Countdown{
		ticker: clk.NewTicker(interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go c.run(onTick)
	return c
}

func (c *Countdown) run(onTick func(*Countdown)) {
	defer close(c.done)
	defer c.ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-c.ticker.C():
			select {
			case <-c.stop:
				return
			default:
			}
			onTick(c)
		}
	}
}

func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Done is closed once the tick goroutine has exited.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
