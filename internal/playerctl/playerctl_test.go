package playerctl

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/svscagn/skadi/internal/command/commandtest"
	"github.com/svscagn/skadi/internal/payload"
	"github.com/svscagn/skadi/internal/types"
)

func str(s string) *string { return &s }
func num(n uint64) *uint64 { return &n }

type recorder struct {
	mu     sync.Mutex
	events []payload.SpotifyEvent
}

func (r *recorder) Emit(_ context.Context, p payload.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p.(payload.SpotifyEvent))
	return nil
}

func query(key string) string {
	return commandtest.Key("playerctl", "-p", "spotify", "metadata", "--format", "{{"+key+"}}")
}

func TestParseRecord(t *testing.T) {
	info, err := ParseRecord("Playing|Song|Artist|Album|1000|200000|50|http://art")
	require.NoError(t, err)
	assert.Equal(t, payload.TrackInfo{
		Status:     "Playing",
		Title:      str("Song"),
		Artist:     str("Artist"),
		Album:      str("Album"),
		Position:   num(1000),
		Duration:   num(200000),
		Volume:     str("50"),
		ArtworkURL: str("http://art"),
	}, info)
	assert.Equal(t, types.PlaybackPlaying, KindFromStatus(info.Status))
}

func TestParseRecord_EmptyFieldsAreAbsent(t *testing.T) {
	info, err := ParseRecord("Paused|||||||")
	require.NoError(t, err)
	assert.Equal(t, payload.TrackInfo{Status: "Paused"}, info)
}

func TestParseRecord_Rejects(t *testing.T) {
	for _, line := range []string{
		"",
		"Playing|Song|Artist",
		"Playing|Song|Artist|Album|1000|200000|50",
		"Playing|Song|Artist|Album|abc|200000|50|http://art",
		"Playing|Song|Artist|Album|1000|-5|50|http://art",
	} {
		_, err := ParseRecord(line)
		assert.Error(t, err, "line %q", line)
	}
}

func TestParseRecord_Property(t *testing.T) {
	text := rapid.OneOf(rapid.Just(""), rapid.StringMatching(`[^|\n]{1,16}`))
	numeric := rapid.OneOf(rapid.Just(""), rapid.Map(rapid.Uint64(), func(n uint64) string {
		return strconv.FormatUint(n, 10)
	}))

	rapid.Check(t, func(t *rapid.T) {
		fields := []string{
			text.Draw(t, "status"),
			text.Draw(t, "title"),
			text.Draw(t, "artist"),
			text.Draw(t, "album"),
			numeric.Draw(t, "position"),
			numeric.Draw(t, "duration"),
			text.Draw(t, "volume"),
			text.Draw(t, "art"),
		}
		corrupt := rapid.Bool().Draw(t, "corrupt")
		if corrupt {
			fields[rapid.SampledFrom([]int{4, 5}).Draw(t, "field")] = "x" + rapid.StringMatching(`[0-9]{0,4}`).Draw(t, "junk")
		}

		info, err := ParseRecord(strings.Join(fields, "|"))
		if corrupt {
			if err == nil {
				t.Fatalf("corrupt numeric field accepted: %v", fields)
			}
			return
		}
		if err != nil {
			t.Fatalf("well-formed record rejected: %v", err)
		}

		checkText := func(name, want string, got *string) {
			if want == "" && got != nil {
				t.Fatalf("%s: empty field should be absent, got %q", name, *got)
			}
			if want != "" && (got == nil || *got != want) {
				t.Fatalf("%s: want %q, got %v", name, want, got)
			}
		}
		checkNum := func(name, want string, got *uint64) {
			if want == "" {
				if got != nil {
					t.Fatalf("%s: empty field should be absent", name)
				}
				return
			}
			if got == nil || strconv.FormatUint(*got, 10) != want {
				t.Fatalf("%s: want %s, got %v", name, want, got)
			}
		}

		if info.Status != fields[0] {
			t.Fatalf("status: want %q, got %q", fields[0], info.Status)
		}
		checkText("title", fields[1], info.Title)
		checkText("artist", fields[2], info.Artist)
		checkText("album", fields[3], info.Album)
		checkNum("position", fields[4], info.Position)
		checkNum("duration", fields[5], info.Duration)
		checkText("volume", fields[6], info.Volume)
		checkText("artworkUrl", fields[7], info.ArtworkURL)
	})
}

func TestKindFromStatus(t *testing.T) {
	assert.Equal(t, types.PlaybackPlaying, KindFromStatus("Playing"))
	assert.Equal(t, types.PlaybackPaused, KindFromStatus("Paused"))
	assert.Equal(t, types.PlaybackStopped, KindFromStatus("Stopped"))
	assert.Equal(t, types.PlaybackUnknown, KindFromStatus("playing"))
	assert.Equal(t, types.PlaybackUnknown, KindFromStatus(""))

	assert.Equal(t, types.PlaybackStopped, eventKind("Buffering"))
	assert.Equal(t, types.PlaybackPaused, eventKind("Paused"))
}

func TestCurrentTrack(t *testing.T) {
	fake := &commandtest.Fake{Outputs: map[string]string{
		query("title"):        "Song\n",
		query("artist"):       "Artist\n",
		query("album"):        "\n",
		query("position"):     "1234\n",
		query("mpris:length"): "not-a-number\n",
		query("mpris:artUrl"): "https://i.scdn.co/image/x\n",
	}}

	l := New("spotify", fake)
	info := l.CurrentTrack(context.Background())

	assert.Equal(t, payload.TrackInfo{
		Title:      str("Song"),
		Artist:     str("Artist"),
		Status:     "Unknown",
		Position:   num(1234),
		ArtworkURL: str("https://i.scdn.co/image/x"),
	}, info)
	assert.Equal(t, 8, fake.CallCount("playerctl -p spotify metadata --format"))
}

func TestRun_SnapshotThenFollow(t *testing.T) {
	fake := &commandtest.Fake{
		Outputs: map[string]string{query("status"): "Paused"},
		Lines: []string{
			"Playing|Song|Artist|Album|1000|200000|50|http://art",
			"too|short",
			"Playing|Song|Artist|Album|oops|200000|50|http://art",
			"Paused|Song|Artist|Album|2000|200000|50|http://art",
			"Buffering|Song||||||",
		},
	}

	rec := &recorder{}
	err := New("spotify", fake).Run(context.Background(), rec)
	require.NoError(t, err)

	require.Len(t, rec.events, 4)
	assert.Equal(t, types.PlaybackRequest, rec.events[0].Kind)
	assert.Equal(t, "Paused", rec.events[0].TrackInfo.Status)
	assert.Equal(t, types.PlaybackPlaying, rec.events[1].Kind)
	assert.Equal(t, types.PlaybackPaused, rec.events[2].Kind)
	assert.Equal(t, num(2000), rec.events[2].TrackInfo.Position)
	assert.Equal(t, types.PlaybackStopped, rec.events[3].Kind)
	assert.Equal(t, "Buffering", rec.events[3].TrackInfo.Status)

	assert.Equal(t, 1, fake.CallCount("playerctl -p spotify -f "+followFormat+" metadata --follow"))
}

func TestRun_SpawnFailureIsTerminal(t *testing.T) {
	spawnErr := payload.IoFailure("spawn playerctl", errors.New("executable file not found"))
	fake := &commandtest.Fake{StreamErr: spawnErr}

	rec := &recorder{}
	err := New("spotify", fake).Run(context.Background(), rec)
	assert.ErrorIs(t, err, payload.ErrIoFailure)
	require.Len(t, rec.events, 1, "snapshot is still emitted")
}

func TestFollowFormat(t *testing.T) {
	assert.Equal(t,
		"{{status}}|{{title}}|{{artist}}|{{album}}|{{position}}|{{mpris:length}}|{{volume}}|{{mpris:artUrl}}",
		followFormat)
}
