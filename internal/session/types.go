package session

import "time"

// State is the lifecycle state of a Session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateDisposed      State = "disposed"
)

var allStates = []State{StateUninitialized, StateInitializing, StateReady, StateDisposed}

// Snapshot is a read-only projection of the session.
type Snapshot struct {
	State            State
	ModelPath        string
	LoadedAt         time.Time
	LastError        string
	LoadsTotal       uint64
	GenerationsTotal uint64
	Inflight         int
}
