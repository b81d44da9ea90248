package modules

import (
	"context"
	"log/slog"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/waveline/internal/config"
	"github.com/jmylchreest/waveline/internal/shell"
)

const (
	mprisPrefix     = "org.mpris.MediaPlayer2."
	mprisObjectPath = "/org/mpris/MediaPlayer2"
	mprisPlayer     = "org.mpris.MediaPlayer2.Player"
)

// Player is the observed state of one MPRIS player on the session bus.
type Player struct {
	BusName string
	Title   string
	Artist  string
	Status  string // Playing, Paused or Stopped
}

// MediaPlayer tracks MPRIS players over D-Bus and exposes playback controls.
type MediaPlayer struct {
	cfg     config.MediaPlayerConfig
	logger  *slog.Logger
	conn    *dbus.Conn
	players []Player
}

type playersScanned struct {
	players []Player
}

func (playersScanned) Module() string { return "mediaplayer" }

type playerCommandDone struct{}

func (playerCommandDone) Module() string { return "mediaplayer" }

// NewMediaPlayer creates the media player module on the given session bus
// connection. A nil connection leaves the module dormant.
func NewMediaPlayer(cfg config.MediaPlayerConfig, conn *dbus.Conn, logger *slog.Logger) *MediaPlayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaPlayer{cfg: cfg, logger: logger, conn: conn}
}

// SetConfig applies a reloaded media player configuration.
func (m *MediaPlayer) SetConfig(cfg config.MediaPlayerConfig) {
	m.cfg = cfg
}

// Name implements Module.
func (m *MediaPlayer) Name() string { return "mediaplayer" }

// active returns the player to surface in the bar: the first playing one,
// else the first known one.
func (m *MediaPlayer) active() *Player {
	for i := range m.players {
		if m.players[i].Status == "Playing" {
			return &m.players[i]
		}
	}
	if len(m.players) > 0 {
		return &m.players[0]
	}
	return nil
}

// View implements Module.
func (m *MediaPlayer) View() *Segment {
	player := m.active()
	if player == nil {
		return nil
	}

	icon := ""
	if player.Status == "Playing" {
		icon = ""
	}

	label := player.Title
	if player.Artist != "" {
		label = player.Artist + " - " + label
	}
	return TextSegment(icon, truncate(label, m.cfg.MaxTitleLength))
}

// MenuKind implements MenuProvider.
func (m *MediaPlayer) MenuKind() shell.MenuKind { return shell.KindMediaPlayer() }

// MenuView implements MenuProvider.
func (m *MediaPlayer) MenuView() *MenuView {
	view := &MenuView{Title: "Media"}
	for _, player := range m.players {
		player := player
		icon := ""
		if player.Status == "Playing" {
			icon = ""
		}
		view.Items = append(view.Items,
			MenuItem{
				Icon:       icon,
				Title:      player.Title,
				Subtitle:   player.Artist,
				OnActivate: m.command(player.BusName, "PlayPause"),
			},
			MenuItem{Icon: "", Title: "Previous", OnActivate: m.command(player.BusName, "Previous")},
			MenuItem{Icon: "", Title: "Next", OnActivate: m.command(player.BusName, "Next")},
		)
	}
	return view
}

func (m *MediaPlayer) command(busName, method string) func() Action {
	conn := m.conn
	return func() Action {
		return Action{Command: func() Message {
			if conn == nil {
				return nil
			}
			call := conn.Object(busName, mprisObjectPath).Call(mprisPlayer+"."+method, 0)
			if call.Err != nil {
				return nil
			}
			return playerCommandDone{}
		}}
	}
}

// Update implements Updater.
func (m *MediaPlayer) Update(msg Message) Action {
	switch msg := msg.(type) {
	case playersScanned:
		m.players = msg.players
	case playerCommandDone:
		// Player state changed on our behalf; rescan rather than waiting
		// for the PropertiesChanged signal.
		return Action{Command: func() Message {
			return playersScanned{players: m.scan()}
		}}
	}
	return Action{}
}

// Subscribe implements Subscriber: an initial scan, then a rescan whenever
// an MPRIS name or player property changes on the bus.
func (m *MediaPlayer) Subscribe(ctx context.Context, messages chan<- Message) {
	if m.conn == nil {
		return
	}

	if err := m.conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchObjectPath(mprisObjectPath),
	); err != nil {
		m.logger.Warn("failed to match player signals", "error", err)
		return
	}
	if err := m.conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
	); err != nil {
		m.logger.Warn("failed to match name signals", "error", err)
		return
	}

	signals := make(chan *dbus.Signal, 16)
	m.conn.Signal(signals)
	defer m.conn.RemoveSignal(signals)

	send := func() bool {
		select {
		case messages <- playersScanned{players: m.scan()}:
			return true
		case <-ctx.Done():
			return false
		}
	}
	if !send() {
		return
	}

	for {
		select {
		case sig, ok := <-signals:
			if !ok {
				return
			}
			if !relevantSignal(sig) {
				continue
			}
			if !send() {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func relevantSignal(sig *dbus.Signal) bool {
	switch sig.Name {
	case "org.freedesktop.DBus.Properties.PropertiesChanged":
		return sig.Path == mprisObjectPath
	case "org.freedesktop.DBus.NameOwnerChanged":
		name, ok := sig.Body[0].(string)
		return ok && strings.HasPrefix(name, mprisPrefix)
	default:
		return false
	}
}

// scan lists MPRIS bus names and reads each player's status and metadata.
func (m *MediaPlayer) scan() []Player {
	var names []string
	if err := m.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		m.logger.Warn("failed to list bus names", "error", err)
		return nil
	}

	var players []Player
	for _, name := range names {
		if !strings.HasPrefix(name, mprisPrefix) {
			continue
		}
		players = append(players, m.readPlayer(name))
	}
	return players
}

func (m *MediaPlayer) readPlayer(busName string) Player {
	player := Player{BusName: busName, Status: "Stopped"}
	obj := m.conn.Object(busName, mprisObjectPath)

	if v, err := obj.GetProperty(mprisPlayer + ".PlaybackStatus"); err == nil {
		v.Store(&player.Status)
	}
	if v, err := obj.GetProperty(mprisPlayer + ".Metadata"); err == nil {
		var metadata map[string]dbus.Variant
		if v.Store(&metadata) == nil {
			if title, ok := metadata["xesam:title"]; ok {
				title.Store(&player.Title)
			}
			if artists, ok := metadata["xesam:artist"]; ok {
				var list []string
				if artists.Store(&list) == nil && len(list) > 0 {
					player.Artist = strings.Join(list, ", ")
				}
			}
		}
	}
	return player
}

// truncate shortens s to max runes, appending an ellipsis. Zero max means
// unlimited.
func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
