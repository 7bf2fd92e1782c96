package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []TaskEnded
	Subscribe(b, func(e TaskEnded) { got = append(got, e) })

	Emit(b, TaskEnded{Task: 1, Actor: "a", Success: true})
	assert.Equal(t, 1, Pending[TaskEnded](b))
	b.DispatchAll()
	assert.Empty(t, got, "nothing is readable before the swap")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []TaskEnded{{Task: 1, Actor: "a", Success: true}}, got)
	assert.Zero(t, Pending[TaskEnded](b))

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1, "events are delivered once")
}

func TestBusKeepsTypeOrder(t *testing.T) {
	b := NewBus()
	var seen []string
	Subscribe(b, func(TaskReplanned) { seen = append(seen, "replanned") })
	Subscribe(b, func(TaskEnded) { seen = append(seen, "ended") })
	Subscribe(b, func(SnapshotSaved) { seen = append(seen, "saved") })

	for i := 0; i < 3; i++ {
		seen = seen[:0]
		Emit(b, TaskEnded{})
		Emit(b, SnapshotSaved{})
		Emit(b, TaskReplanned{})
		b.SwapBuffers()
		b.DispatchAll()
		assert.Equal(t, []string{"ended", "saved", "replanned"}, seen)
	}
}
