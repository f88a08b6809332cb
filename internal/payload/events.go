package payload

import "github.com/svscagn/skadi/internal/types"

// WindowChanged carries the title of the newly focused window.
type WindowChanged struct {
	Title string `json:"title"`
}

func (WindowChanged) Op() OpCode { return OpWindowChanged }
func (WindowChanged) isPayload() {}

// Workspace reports a workspace being focused, created or destroyed.
type Workspace struct {
	Kind types.WorkspaceKind `json:"type"`
	ID   uint16              `json:"id"`
}

func (Workspace) Op() OpCode { return OpWorkspace }
func (Workspace) isPayload() {}

// Sysinfo is one point-in-time sample of host counters. Byte counters for
// network and disk are cumulative since boot.
type Sysinfo struct {
	CPUUsage    float32 `json:"cpuUsage"`
	MemoryUsed  uint64  `json:"memoryUsed"`
	MemoryTotal uint64  `json:"memoryTotal"`
	MemoryFree  uint64  `json:"memoryFree"`
	SwapUsed    uint64  `json:"swapUsed"`
	SwapTotal   uint64  `json:"swapTotal"`
	NetworkRx   uint64  `json:"networkRx"`
	NetworkTx   uint64  `json:"networkTx"`
	DiskRead    uint64  `json:"diskRead"`
	DiskWrite   uint64  `json:"diskWrite"`
	DiskUsage   uint64  `json:"diskUsage"`
	DiskTotal   uint64  `json:"diskTotal"`
	DiskFree    uint64  `json:"diskFree"`
}

func (Sysinfo) Op() OpCode { return OpSysinfo }
func (Sysinfo) isPayload() {}

// TrackInfo describes the player's current track. Nil fields were reported
// empty (or not at all) by the player and are left out of the JSON.
type TrackInfo struct {
	Title      *string `json:"title,omitempty"`
	Artist     *string `json:"artist,omitempty"`
	Album      *string `json:"album,omitempty"`
	Status     string  `json:"status"`
	Position   *uint64 `json:"position,omitempty"`
	Duration   *uint64 `json:"duration,omitempty"`
	Volume     *string `json:"volume,omitempty"`
	ArtworkURL *string `json:"artworkUrl,omitempty"`
}

// SpotifyEvent is a playback change. Kind is PlaybackRequest only for the
// startup snapshot.
type SpotifyEvent struct {
	Kind      types.PlaybackKind `json:"type"`
	TrackInfo TrackInfo          `json:"trackInfo"`
}

func (SpotifyEvent) Op() OpCode { return OpSpotifyEvent }
func (SpotifyEvent) isPayload() {}

type VolumeEvent struct {
	Volume uint32 `json:"volume"`
}

func (VolumeEvent) Op() OpCode { return OpVolumeEvent }
func (VolumeEvent) isPayload() {}

// Optional returns nil for the empty string and a pointer to s otherwise.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
