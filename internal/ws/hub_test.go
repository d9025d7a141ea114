package ws

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubConn struct {
	mu     sync.Mutex
	events []Event
	fail   bool
	closed bool
}

func (c *stubConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return fmt.Errorf("connection reset")
	}
	c.events = append(c.events, v.(Event))
	return nil
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubConn) received() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestPushReachesAllDevices(t *testing.T) {
	hub := NewHub()
	phone := &stubConn{}
	laptop := &stubConn{}

	hub.Register("actor-1", phone)
	hub.Register("actor-1", laptop)
	assert.Equal(t, 2, hub.ConnectionCount("actor-1"))

	hub.Push("actor-1", Event{Type: "new_message", Data: "hi"})
	assert.Equal(t, 1, phone.received())
	assert.Equal(t, 1, laptop.received())
}

func TestPushToUnknownActorIsNoop(t *testing.T) {
	hub := NewHub()
	// must not panic or block
	hub.Push("nobody", Event{Type: "new_message"})
	assert.Equal(t, 0, hub.ConnectionCount("nobody"))
}

func TestDeregisterPrunesActorEntry(t *testing.T) {
	hub := NewHub()
	phone := &stubConn{}
	laptop := &stubConn{}

	hub.Register("actor-1", phone)
	hub.Register("actor-1", laptop)

	hub.Deregister("actor-1", phone)
	assert.Equal(t, 1, hub.ConnectionCount("actor-1"))

	hub.Push("actor-1", Event{Type: "new_message"})
	assert.Equal(t, 0, phone.received())
	assert.Equal(t, 1, laptop.received())

	hub.Deregister("actor-1", laptop)
	assert.Equal(t, 0, hub.ConnectionCount("actor-1"))
}

func TestFailingConnectionDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	broken := &stubConn{fail: true}
	healthy := &stubConn{}

	hub.Register("actor-1", broken)
	hub.Register("actor-1", healthy)

	hub.Push("actor-1", Event{Type: "new_message"})
	assert.Equal(t, 1, healthy.received())
}

func TestConcurrentRegisterAndPush(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			conn := &stubConn{}
			actor := fmt.Sprintf("actor-%d", i%5)
			hub.Register(actor, conn)
			hub.Deregister(actor, conn)
		}(i)
		go func(i int) {
			defer wg.Done()
			hub.Push(fmt.Sprintf("actor-%d", i%5), Event{Type: "new_message"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, hub.ConnectionCount(fmt.Sprintf("actor-%d", i)))
	}
}
