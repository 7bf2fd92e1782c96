package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase            { return r.phase }
func (r recorder) Update(dt time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerPhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"save", PhasePersist, &log})
	r.Register(recorder{"move", PhasePostUpdate, &log})
	r.Register(recorder{"events", PhaseInput, &log})
	r.Register(recorder{"nav", PhaseUpdate, &log})
	r.Register(recorder{"nav2", PhaseUpdate, &log})
	assert.Equal(t, 5, r.Len())

	r.Tick(50 * time.Millisecond)
	assert.Equal(t, []string{"events", "nav", "nav2", "move", "save"}, log)

	log = nil
	r.TickPhase(PhaseUpdate, 0)
	assert.Equal(t, []string{"nav", "nav2"}, log)
}
