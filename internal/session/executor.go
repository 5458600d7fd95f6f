package session

// Executor runs a session's I/O off the tick path. Results are applied to
// the session when the task completes.
type Executor func(task func())

// GoExecutor runs each task on its own goroutine.
func GoExecutor(task func()) { go task() }

// SyncExecutor runs the task on the caller's goroutine. Tests use it to make
// ledger round trips complete before the triggering call returns.
func SyncExecutor(task func()) { task() }
