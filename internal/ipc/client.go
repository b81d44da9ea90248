package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Client talks to a running waveline daemon over the session bus.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{conn: conn, obj: conn.Object(BusName, Path)}, nil
}

// Close closes the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// GetState fetches and decodes the daemon state.
func (c *Client) GetState() (*State, error) {
	var raw string
	if err := c.obj.Call(Interface+".GetState", 0).Store(&raw); err != nil {
		return nil, fmt.Errorf("is wavelined running? %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("failed to decode daemon state: %w", err)
	}
	return &state, nil
}

// ReloadConfig asks the daemon to reload its configuration from disk.
func (c *Client) ReloadConfig() error {
	return c.obj.Call(Interface+".ReloadConfig", 0).Err
}

// CloseAllMenus asks the daemon to dismiss every open menu.
func (c *Client) CloseAllMenus() error {
	return c.obj.Call(Interface+".CloseAllMenus", 0).Err
}
