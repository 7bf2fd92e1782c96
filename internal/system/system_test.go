package system

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/worldnav/internal/config"
	"github.com/l1jgo/worldnav/internal/core/event"
	coresys "github.com/l1jgo/worldnav/internal/core/system"
	"github.com/l1jgo/worldnav/internal/geom"
	"github.com/l1jgo/worldnav/internal/navigation"
	"github.com/l1jgo/worldnav/internal/pathfind"
	"github.com/l1jgo/worldnav/internal/persist"
	"github.com/l1jgo/worldnav/internal/world"
)

var floorTile = &world.Object{Name: "floor", Kind: world.KindFloor, Terrain: "grass", Length: 20, Width: 20}

func navConfig() config.NavigationConfig {
	cfg := config.Defaults().Navigation
	cfg.MaxTasks = 4
	return cfg
}

func newField(t *testing.T) *world.Map {
	t.Helper()
	m := world.NewMap("field", geom.BoxAt(geom.Vec3{}, 200, 200, 100), zap.NewNop())
	for x := int32(0); x < 10; x++ {
		for y := int32(0); y < 10; y++ {
			m.Place(floorTile, pathfind.Cell{X: x, Y: y}.Origin(0))
		}
	}
	return m
}

type loop struct {
	runner  *coresys.Runner
	mgr     *navigation.Manager
	persist *PersistenceSystem
	bus     *event.Bus
}

func newLoop(m *world.Map, store persist.Store, interval int) *loop {
	bus := event.NewBus()
	mgr := navigation.NewManager(navConfig(), bus, zap.NewNop())
	ps := NewPersistenceSystem(mgr, store, m.Name, bus, zap.NewNop(), interval)

	r := coresys.NewRunner()
	r.Register(ps)
	r.Register(NewMovementSystem(m))
	r.Register(NewNavigationSystem(mgr))
	r.Register(NewEventSystem(bus, zap.NewNop()))
	return &loop{runner: r, mgr: mgr, persist: ps, bus: bus}
}

func (l *loop) tick(n int) {
	for i := 0; i < n; i++ {
		l.runner.Tick(50 * time.Millisecond)
	}
}

func TestLoopDrivesTaskToGoal(t *testing.T) {
	m := newField(t)
	c := world.NewCharacter("walker", pathfind.Cell{X: 1, Y: 1}.Origin(0).Add(geom.Vec3{X: 2, Y: 2}), nil)
	require.NoError(t, m.AddCharacter(c))

	l := newLoop(m, nil, 0)
	var ended []event.TaskEnded
	event.Subscribe(l.bus, func(e event.TaskEnded) { ended = append(ended, e) })

	id, err := l.mgr.AddTask(c, pathfind.Cell{X: 8, Y: 3}.Center(0), geom.East)
	require.NoError(t, err)

	for i := 0; i < 200 && len(ended) == 0; i++ {
		l.tick(1)
	}
	require.Len(t, ended, 1)
	assert.True(t, ended[0].Success)
	assert.Equal(t, int32(id), ended[0].Task)
	assert.Equal(t, pathfind.Cell{X: 8, Y: 3}, pathfind.CellOf(c.Center()))
	assert.Equal(t, geom.East, c.Facing())
	assert.NoError(t, l.persist.Save(), "nil store is a no-op")
}

func TestAutosaveAndRestore(t *testing.T) {
	m := newField(t)
	c := world.NewCharacter("walker", pathfind.Cell{X: 1, Y: 1}.Origin(0).Add(geom.Vec3{X: 2, Y: 2}), nil)
	require.NoError(t, m.AddCharacter(c))

	store := persist.NewSnapshotStore(filepath.Join(t.TempDir(), "field.snap.zst"))
	l := newLoop(m, store, 5)

	var saved []event.SnapshotSaved
	event.Subscribe(l.bus, func(e event.SnapshotSaved) { saved = append(saved, e) })

	id, err := l.mgr.AddTask(c, pathfind.Cell{X: 8, Y: 8}.Center(0), geom.None)
	require.NoError(t, err)

	l.tick(4)
	_, err = store.Load(context.Background(), "field")
	assert.ErrorIs(t, err, persist.ErrNotFound)

	l.tick(1)
	e, err := store.Load(context.Background(), "field")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), e.Tick)
	assert.Equal(t, 1, e.Tasks)
	l.tick(1)
	require.Len(t, saved, 1)

	want, ok := l.mgr.GetTask(id)
	require.True(t, ok)
	c.Stop()

	// a fresh process restores the save and finishes the walk
	fresh := newLoop(m, store, 0)
	resolve := func(uid string) (navigation.Actor, bool) {
		ch, ok := m.Character(uid)
		return ch, ok
	}
	require.NoError(t, fresh.persist.Restore(resolve))
	assert.Equal(t, uint64(5), fresh.persist.Tick())

	got, ok := fresh.mgr.GetTask(id)
	require.True(t, ok)
	assert.Equal(t, want.Goal, got.Goal)
	assert.Equal(t, navigation.Moving, got.Phase)

	for i := 0; i < 200 && fresh.mgr.Len() > 0; i++ {
		fresh.tick(1)
	}
	assert.Equal(t, 0, fresh.mgr.Len())
	assert.Equal(t, pathfind.Cell{X: 8, Y: 8}, pathfind.CellOf(c.Center()))
}

func TestRestoreWithoutSave(t *testing.T) {
	m := newField(t)
	l := newLoop(m, persist.NewSnapshotStore(filepath.Join(t.TempDir(), "none.zst")), 5)
	require.NoError(t, l.persist.Restore(func(string) (navigation.Actor, bool) { return nil, false }))
	assert.Equal(t, uint64(0), l.persist.Tick())
}
