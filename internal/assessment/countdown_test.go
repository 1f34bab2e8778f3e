package assessment

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	testingclock "k8s.io/utils/clock/testing"
)

func TestCountdown_TicksUntilStopped(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	var ticks atomic.Int32
	c := StartCountdown(clk, time.Second, func(*Countdown) { ticks.Add(1) })

	for i := int32(1); i <= 3; i++ {
		clk.Step(time.Second)
		want := i
		assert.Eventually(t, func() bool { return ticks.Load() == want }, time.Second, time.Millisecond)
	}

	c.Stop()
	c.Stop()
	<-c.Done()

	clk.Step(time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(3), ticks.Load())
}

func TestCountdown_StopFromCallback(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	c := StartCountdown(clk, time.Second, func(c *Countdown) { c.Stop() })

	clk.Step(time.Second)

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("countdown did not exit after stopping itself")
	}
}
