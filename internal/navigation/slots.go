package navigation

// TaskID encodes a slot index in the lower 16 bits and the slot's generation
// in the upper bits. The generation increments when a slot is freed, so an
// id held past its task's end never addresses the slot's next task.
type TaskID int32

// InvalidTask is returned when a task cannot be created.
const InvalidTask TaskID = -1

const maxGeneration = 0x7fff

func newTaskID(slot int, gen uint16) TaskID {
	return TaskID(int32(gen)<<16 | int32(slot))
}

func (id TaskID) Slot() int          { return int(id & 0xffff) }
func (id TaskID) Generation() uint16 { return uint16(id >> 16) }

// slotPool hands out task slots from a free list. Single-goroutine access only.
type slotPool struct {
	generations []uint16
	locked      []bool
	freeList    []int
	highest     int // highest locked slot, -1 when none
}

func newSlotPool(n int) *slotPool {
	p := &slotPool{
		generations: make([]uint16, n),
		locked:      make([]bool, n),
		freeList:    make([]int, 0, n),
		highest:     -1,
	}
	for i := n - 1; i >= 0; i-- {
		p.generations[i] = 1
		p.freeList = append(p.freeList, i)
	}
	return p
}

func (p *slotPool) acquire() (TaskID, bool) {
	if len(p.freeList) == 0 {
		return InvalidTask, false
	}
	slot := p.freeList[len(p.freeList)-1]
	p.freeList = p.freeList[:len(p.freeList)-1]
	p.lock(slot)
	return newTaskID(slot, p.generations[slot]), true
}

// claim locks a specific slot under a specific generation. Used on restore so
// saved ids stay valid.
func (p *slotPool) claim(slot int, gen uint16) (TaskID, bool) {
	if slot < 0 || slot >= len(p.locked) || p.locked[slot] || gen == 0 || gen > maxGeneration {
		return InvalidTask, false
	}
	for i, s := range p.freeList {
		if s == slot {
			p.freeList = append(p.freeList[:i], p.freeList[i+1:]...)
			break
		}
	}
	p.generations[slot] = gen
	p.lock(slot)
	return newTaskID(slot, gen), true
}

func (p *slotPool) lock(slot int) {
	p.locked[slot] = true
	if slot > p.highest {
		p.highest = slot
	}
}

func (p *slotPool) alive(id TaskID) bool {
	if id < 0 {
		return false
	}
	slot := id.Slot()
	if slot >= len(p.locked) {
		return false
	}
	return p.locked[slot] && p.generations[slot] == id.Generation()
}

func (p *slotPool) release(slot int) {
	if !p.locked[slot] {
		return // already released
	}
	p.locked[slot] = false
	p.generations[slot]++
	if p.generations[slot] > maxGeneration {
		p.generations[slot] = 1
	}
	p.freeList = append(p.freeList, slot)
	for p.highest >= 0 && !p.locked[p.highest] {
		p.highest--
	}
}

func (p *slotPool) used() int { return len(p.locked) - len(p.freeList) }
