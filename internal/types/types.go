package types

type WorkspaceKind string

const (
	WorkspaceMoved     WorkspaceKind = "Moved"
	WorkspaceCreated   WorkspaceKind = "Created"
	WorkspaceDestroyed WorkspaceKind = "Destroyed"
)

type PlaybackKind string

const (
	PlaybackRequest PlaybackKind = "Request"
	PlaybackPlaying PlaybackKind = "Playing"
	PlaybackPaused  PlaybackKind = "Paused"
	PlaybackStopped PlaybackKind = "Stopped"

	// PlaybackUnknown is never written to the wire; it is normalised to
	// PlaybackStopped before an event is built.
	PlaybackUnknown PlaybackKind = "unknown"
)

type ErrorKind string

const (
	ErrorIoFailure          ErrorKind = "IoFailure"
	ErrorMissingRuntimeDir  ErrorKind = "MissingRuntimeDir"
	ErrorMissingWmSignature ErrorKind = "MissingWmSignature"
	ErrorInvalidOpCode      ErrorKind = "InvalidOpCode"
)

type AdapterState string

const (
	AdapterPending AdapterState = "pending"
	AdapterRunning AdapterState = "running"
	AdapterExited  AdapterState = "exited"
	AdapterStopped AdapterState = "stopped"
	AdapterFailed  AdapterState = "failed"
)
