package event

// TaskEnded is emitted when a navigation task reaches a terminal state or is
// deleted. Deleted tasks report Success false and Deleted true.
type TaskEnded struct {
	Task    int32
	Actor   string
	Success bool
	Deleted bool
}

// TaskReplanned is emitted when a moving task discards its path, either to
// search around a blockage or because the ground along it changed.
type TaskReplanned struct {
	Task     int32
	Actor    string
	Recovery bool // local detour rather than a full replan
}

// SnapshotSaved is emitted after navigation state has been written out.
type SnapshotSaved struct {
	Tick  uint64
	Tasks int
}
