package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartsync/internal/collection"
	"github.com/roach88/cartsync/internal/notify"
)

func TestOutbox_DrainsInOrder(t *testing.T) {
	n := notify.New[ChangeEvent]()
	var got []int64
	n.SubscribeAll(func(_ string, ev ChangeEvent) { got = append(got, ev.Seq) })

	o := newOutbox()
	for i := int64(1); i <= 3; i++ {
		o.enqueue(ChangeEvent{Topic: Topic(collection.KindCart, ChangeAdded), Seq: i})
	}
	o.drain(n)

	assert.Equal(t, []int64{1, 2, 3}, got)
	assert.Zero(t, o.pending())
}

func TestOutbox_NestedDrainDefersToRunningDrainer(t *testing.T) {
	n := notify.New[ChangeEvent]()
	o := newOutbox()

	var got []string
	n.SubscribeAll(func(topic string, ev ChangeEvent) {
		got = append(got, "start:"+topic)
		if ev.Seq == 1 {
			o.enqueue(ChangeEvent{Topic: "cart:cleared", Seq: 2})
			o.drain(n)
		}
		got = append(got, "end:"+topic)
	})

	o.enqueue(ChangeEvent{Topic: "cart:item:added", Seq: 1})
	o.drain(n)

	assert.Equal(t, []string{
		"start:cart:item:added",
		"end:cart:item:added",
		"start:cart:cleared",
		"end:cart:cleared",
	}, got)
}

func TestOutbox_ConcurrentDrainDeliversEverything(t *testing.T) {
	n := notify.New[ChangeEvent]()
	var mu sync.Mutex
	delivered := 0
	n.SubscribeAll(func(string, ChangeEvent) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	o := newOutbox()
	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o.enqueue(ChangeEvent{Topic: "cart:item:added", Seq: int64(i)})
			o.drain(n)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, workers, delivered)
	assert.Zero(t, o.pending())
}
