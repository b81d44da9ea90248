package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/waveline/internal/shell"
)

const (
	// BusName is the bus name claimed by the daemon.
	BusName = "io.github.jmylchreest.Waveline"
	// Interface is the control interface name.
	Interface = "io.github.jmylchreest.Waveline1"
	// Path is the control object path.
	Path = "/io/github/jmylchreest/Waveline"
)

// State is the daemon state returned by GetState.
type State struct {
	Version string             `json:"version"`
	Entries []shell.EntryState `json:"entries"`
}

// StateHandler returns the current daemon state.
type StateHandler func(ctx context.Context) (State, error)

// ReloadHandler reloads the configuration from disk.
type ReloadHandler func() error

// CloseMenusHandler closes every open menu.
type CloseMenusHandler func()

// Server exports the control interface on the session bus.
type Server struct {
	mu     sync.Mutex
	logger *slog.Logger
	conn   *dbus.Conn

	stateHandler      StateHandler
	reloadHandler     ReloadHandler
	closeMenusHandler CloseMenusHandler

	running bool
}

// NewServer creates an unstarted control server.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{logger: logger}
}

// SetStateHandler sets the handler backing GetState.
func (s *Server) SetStateHandler(handler StateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateHandler = handler
}

// SetReloadHandler sets the handler backing ReloadConfig.
func (s *Server) SetReloadHandler(handler ReloadHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadHandler = handler
}

// SetCloseMenusHandler sets the handler backing CloseAllMenus.
func (s *Server) SetCloseMenusHandler(handler CloseMenusHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeMenusHandler = handler
}

// Start connects to the session bus, exports the object and claims the bus
// name.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	s.conn = conn

	if err := conn.Export(s, Path, Interface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: Path,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: Interface,
				Methods: []introspect.Method{
					{Name: "GetState", Args: []introspect.Arg{{Name: "state", Type: "s", Direction: "out"}}},
					{Name: "ReloadConfig"},
					{Name: "CloseAllMenus"},
				},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), Path,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken, is another waveline running?", BusName)
	}

	s.running = true
	s.logger.Info("control interface started", "bus_name", BusName)
	return nil
}

// Stop releases the bus name and closes the connection.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false

	if _, err := s.conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	return s.conn.Close()
}

// GetState implements the GetState method.
func (s *Server) GetState() (string, *dbus.Error) {
	s.mu.Lock()
	handler := s.stateHandler
	s.mu.Unlock()

	if handler == nil {
		return "", dbus.MakeFailedError(fmt.Errorf("no state handler"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	state, err := handler(ctx)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

// ReloadConfig implements the ReloadConfig method.
func (s *Server) ReloadConfig() *dbus.Error {
	s.mu.Lock()
	handler := s.reloadHandler
	s.mu.Unlock()

	if handler == nil {
		return dbus.MakeFailedError(fmt.Errorf("no reload handler"))
	}
	if err := handler(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// CloseAllMenus implements the CloseAllMenus method.
func (s *Server) CloseAllMenus() *dbus.Error {
	s.mu.Lock()
	handler := s.closeMenusHandler
	s.mu.Unlock()

	if handler != nil {
		handler()
	}
	return nil
}
