package modules

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/waveline/internal/config"
	"github.com/jmylchreest/waveline/internal/shell"
	"github.com/jmylchreest/waveline/internal/sysinfo"
)

func TestClock_ViewFollowsTicks(t *testing.T) {
	c := NewClock(config.ClockConfig{Format: "15:04"})
	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	c.Update(clockTick{at: at})

	view := c.View()
	require.NotNil(t, view)
	require.Len(t, view.Blocks, 1)
	assert.Equal(t, "09:30", view.Blocks[0].Text)
}

func TestClock_IgnoresForeignMessages(t *testing.T) {
	c := NewClock(config.ClockConfig{Format: "15:04"})
	before := c.View().Blocks[0].Text

	action := c.Update(updatesChecked{})
	assert.Equal(t, Action{}, action)
	assert.Equal(t, before, c.View().Blocks[0].Text)
}

func TestUpdates_DisabledWithoutCheckCmd(t *testing.T) {
	m := NewUpdates(config.UpdatesConfig{})
	assert.Nil(t, m.View())
}

func TestUpdates_CheckPopulatesBadge(t *testing.T) {
	m := NewUpdates(config.UpdatesConfig{CheckCmd: "checkupdates"})
	m.runner = func(string) ([]byte, error) {
		return []byte("linux 6.9-1\nfirefox 126.0-1\n\n"), nil
	}

	msg := m.checkCommand()()
	m.Update(msg)

	view := m.View()
	require.NotNil(t, view)
	assert.Equal(t, "2", view.Blocks[0].Text)
	assert.Len(t, m.MenuView().Items, 2)
}

func TestUpdates_CheckErrorKeepsState(t *testing.T) {
	m := NewUpdates(config.UpdatesConfig{CheckCmd: "checkupdates"})
	m.packages = []string{"linux 6.9-1"}
	m.runner = func(string) ([]byte, error) { return nil, errors.New("pacman lock") }

	m.Update(m.checkCommand()())
	assert.Len(t, m.packages, 1)
}

func TestUpdates_UpdateAllClosesMenuAndRechecks(t *testing.T) {
	var ran []string
	m := NewUpdates(config.UpdatesConfig{CheckCmd: "check", UpdateCmd: "update"})
	m.runner = func(cmd string) ([]byte, error) {
		ran = append(ran, cmd)
		return nil, nil
	}
	m.packages = []string{"linux 6.9-1"}

	items := m.MenuView().Items
	updateAll := items[len(items)-1]
	require.NotNil(t, updateAll.OnActivate)

	action := updateAll.OnActivate()
	require.NotNil(t, action.CloseMenu)
	assert.Equal(t, shell.KindUpdates(), *action.CloseMenu)
	require.NotNil(t, action.Command)

	// Running the command applies the update, and its completion message
	// triggers the follow-up check.
	followUp := m.Update(action.Command())
	require.NotNil(t, followUp.Command)
	followUp.Command()
	assert.Equal(t, []string{"update", "check"}, ran)
}

func TestSystemInfo_HiddenBeforeFirstSnapshot(t *testing.T) {
	service := sysinfo.NewService(config.SystemInfoConfig{}, nil)
	m := NewSystemInfo(config.SystemInfoConfig{}, service)
	assert.Nil(t, m.View())
}

func TestSystemInfo_ViewAndThresholds(t *testing.T) {
	cfg := config.SystemInfoConfig{
		CPU:         config.CPUConfig{WarnThreshold: 60, AlertThreshold: 80},
		Temperature: config.TemperatureConfig{Sensor: "k10temp", WarnThreshold: 60, AlertThreshold: 80},
	}
	service := sysinfo.NewService(cfg, nil)
	m := NewSystemInfo(cfg, service)

	m.Update(sysinfoUpdate{snap: &sysinfo.Snapshot{
		CPUUsage:     85,
		CPUFrequency: 3200,
		Temperature:  65,
		MemoryUsed:   4 << 30,
		MemoryTotal:  16 << 30,
	}})

	view := m.View()
	require.NotNil(t, view)
	require.Len(t, view.Blocks, 3)
	assert.Equal(t, "85%", view.Blocks[0].Text)
	assert.Equal(t, EmphasisAlert, view.Blocks[0].Emphasis)
	assert.Equal(t, "25%", view.Blocks[1].Text)
	assert.Equal(t, EmphasisNormal, view.Blocks[1].Emphasis)
	assert.Equal(t, "65°C", view.Blocks[2].Text)
	assert.Equal(t, EmphasisWarn, view.Blocks[2].Emphasis)

	menu := m.MenuView()
	assert.Equal(t, shell.KindSystemInfo(), m.MenuKind())
	require.Len(t, menu.Items, 3)
	assert.Contains(t, menu.Items[0].Subtitle, "3200 MHz")
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, EmphasisNormal, threshold(50, 60, 80))
	assert.Equal(t, EmphasisWarn, threshold(60, 60, 80))
	assert.Equal(t, EmphasisAlert, threshold(80, 60, 80))
	// Unset thresholds never fire.
	assert.Equal(t, EmphasisNormal, threshold(99, 0, 0))
}

func TestSettings_MenuOmitsEmptyCommands(t *testing.T) {
	m := NewSettings(config.SettingsConfig{
		LockCmd:    "loginctl lock-session",
		SuspendCmd: "systemctl suspend",
	})

	menu := m.MenuView()
	require.Len(t, menu.Items, 2)
	assert.Equal(t, "Lock", menu.Items[0].Title)
	assert.Equal(t, "Suspend", menu.Items[1].Title)
}

func TestSettings_ActivationRunsCommandAndClosesMenu(t *testing.T) {
	var ran string
	m := NewSettings(config.SettingsConfig{LockCmd: "lock"})
	m.runner = func(cmd string) ([]byte, error) {
		ran = cmd
		return nil, nil
	}

	action := m.MenuView().Items[0].OnActivate()
	require.NotNil(t, action.CloseMenu)
	assert.Equal(t, shell.KindSettings(), *action.CloseMenu)
	action.Command()
	assert.Equal(t, "lock", ran)
}

func TestMediaPlayer_ActivePrefersPlaying(t *testing.T) {
	m := NewMediaPlayer(config.MediaPlayerConfig{MaxTitleLength: 10}, nil, nil)
	assert.Nil(t, m.View())

	m.Update(playersScanned{players: []Player{
		{BusName: "org.mpris.MediaPlayer2.firefox", Title: "Podcast", Status: "Paused"},
		{BusName: "org.mpris.MediaPlayer2.spotify", Title: "A Very Long Song Title", Artist: "Someone", Status: "Playing"},
	}})

	view := m.View()
	require.NotNil(t, view)
	// Playing player wins, and the label is truncated to the limit.
	assert.Equal(t, "Someone - ", view.Blocks[0].Text[:10])
	assert.Contains(t, view.Blocks[0].Text, "…")
}

func TestMediaPlayer_MenuListsAllPlayers(t *testing.T) {
	m := NewMediaPlayer(config.MediaPlayerConfig{}, nil, nil)
	m.Update(playersScanned{players: []Player{
		{BusName: "org.mpris.MediaPlayer2.spotify", Title: "Song", Status: "Playing"},
	}})

	menu := m.MenuView()
	assert.Equal(t, shell.KindMediaPlayer(), m.MenuKind())
	// PlayPause row plus previous/next controls.
	require.Len(t, menu.Items, 3)
	assert.Equal(t, "Song", menu.Items[0].Title)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exact", truncate("exact", 5))
	assert.Equal(t, "long …", truncate("long title", 5))
	assert.Equal(t, "unlimited", truncate("unlimited", 0))
}

func TestTray_MenuViewFor(t *testing.T) {
	tray := NewTray(nil, nil)
	assert.Nil(t, tray.View())

	tray.Update(trayScanned{items: []TrayItem{
		{Service: ":1.42", Title: "Network Manager", IconName: "nm-applet"},
	}})

	view := tray.View()
	require.NotNil(t, view)
	assert.Len(t, view.Blocks, 1)

	menu := tray.MenuViewFor(":1.42")
	require.NotNil(t, menu)
	assert.Equal(t, "Network Manager", menu.Title)
	assert.Equal(t, shell.KindTray(":1.42"), tray.MenuKindFor(":1.42"))

	assert.Nil(t, tray.MenuViewFor(":1.99"))
}
