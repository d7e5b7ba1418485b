package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairDelivery(t *testing.T) {
	a, b := NewPair()

	received := make(chan []byte, 1)
	b.SetHandler(func(frame []byte) {
		received <- frame
	})

	require.NoError(t, a.Send([]byte("hello")))

	select {
	case frame := <-received:
		assert.Equal(t, "hello", string(frame))
	case <-time.After(time.Second):
		t.Fatal("frame not delivered")
	}
}

func TestPairBothDirections(t *testing.T) {
	a, b := NewPair()

	fromA := make(chan string, 1)
	fromB := make(chan string, 1)
	a.SetHandler(func(frame []byte) { fromB <- string(frame) })
	b.SetHandler(func(frame []byte) { fromA <- string(frame) })

	require.NoError(t, a.Send([]byte("ping")))
	require.NoError(t, b.Send([]byte("pong")))

	assert.Equal(t, "ping", <-fromA)
	assert.Equal(t, "pong", <-fromB)
}

func TestHandlerReplaced(t *testing.T) {
	a, b := NewPair()

	var mu sync.Mutex
	var first, second int
	done := make(chan struct{}, 2)

	b.SetHandler(func([]byte) {
		mu.Lock()
		first++
		mu.Unlock()
		done <- struct{}{}
	})
	require.NoError(t, a.Send([]byte("one")))
	<-done

	// The replacement handler must be the only one receiving frames.
	b.SetHandler(func([]byte) {
		mu.Lock()
		second++
		mu.Unlock()
		done <- struct{}{}
	})
	require.NoError(t, a.Send([]byte("two")))
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestSendAfterClose(t *testing.T) {
	a, _ := NewPair()
	require.NoError(t, a.Close())

	err := a.Send([]byte("late"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClosedPeerDropsFrames(t *testing.T) {
	a, b := NewPair()

	received := make(chan []byte, 1)
	b.SetHandler(func(frame []byte) { received <- frame })
	require.NoError(t, b.Close())

	// Send succeeds (fire-and-forget) but nothing is delivered.
	require.NoError(t, a.Send([]byte("void")))

	select {
	case <-received:
		t.Fatal("closed endpoint received frame")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSenderBufferReuse(t *testing.T) {
	a, b := NewPair()

	received := make(chan []byte, 1)
	b.SetHandler(func(frame []byte) { received <- frame })

	buf := []byte("first")
	require.NoError(t, a.Send(buf))
	copy(buf, "XXXXX")

	assert.Equal(t, "first", string(<-received))
}
