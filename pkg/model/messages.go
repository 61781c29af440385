package model

// Messages delivered to the bubbletea host. Anything that mutates a table
// controller travels as one of these so it runs on the UI goroutine.

// RowsLoadedMsg carries the answer to one fetch
type RowsLoadedMsg struct {
	Entity string
	// Seq orders fetches; only the latest is applied
	Seq   uint64
	Rows  []Row
	Total int
	Err   error
}

// MutationKind names a completed write
type MutationKind string

const (
	MutationDelete     MutationKind = "delete"
	MutationBulkDelete MutationKind = "bulk-delete"
)

// MutationCompletedMsg reports a delete or bulk delete
type MutationCompletedMsg struct {
	Entity string
	Kind   MutationKind
	Count  int
	Err    error
}

// DataChangedMsg signals that the entity's data changed outside the console
type DataChangedMsg struct {
	Entity string
}

// WatchStoppedMsg is sent when a change watcher gives up
type WatchStoppedMsg struct {
	Entity string
	Err    error
}

// TimerFiredMsg runs a timer callback on the UI goroutine
type TimerFiredMsg struct {
	Fn func()
}

// ExportCompletedMsg reports an export to disk
type ExportCompletedMsg struct {
	Path  string
	Count int
	Err   error
}

// StatusTickMsg re-renders so expired status messages disappear
type StatusTickMsg struct{}

// QuitMsg asks the host to tear down and exit
type QuitMsg struct{}
