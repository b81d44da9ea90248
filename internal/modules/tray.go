package modules

import (
	"context"
	"log/slog"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/waveline/internal/shell"
)

const (
	watcherName  = "org.kde.StatusNotifierWatcher"
	watcherPath  = "/StatusNotifierWatcher"
	watcherIface = "org.kde.StatusNotifierWatcher"
	itemIface    = "org.kde.StatusNotifierItem"
	itemPath     = "/StatusNotifierItem"
)

// TrayItem is the observed state of one status notifier item.
type TrayItem struct {
	Service  string // bus name owning the item
	Title    string
	IconName string
}

// Tray hosts status notifier items registered with the session's
// StatusNotifierWatcher. Each item gets its own popup menu, keyed by the
// item's service name.
type Tray struct {
	logger *slog.Logger
	conn   *dbus.Conn
	items  []TrayItem
}

type trayScanned struct {
	items []TrayItem
}

func (trayScanned) Module() string { return "tray" }

type trayActivated struct{}

func (trayActivated) Module() string { return "tray" }

// NewTray creates the tray module on the given session bus connection. A nil
// connection leaves the module dormant.
func NewTray(conn *dbus.Conn, logger *slog.Logger) *Tray {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tray{logger: logger, conn: conn}
}

// Name implements Module.
func (t *Tray) Name() string { return "tray" }

// Items returns the current tray items in registration order.
func (t *Tray) Items() []TrayItem { return t.items }

// View implements Module: one icon block per registered item.
func (t *Tray) View() *Segment {
	if len(t.items) == 0 {
		return nil
	}
	segment := &Segment{}
	for _, item := range t.items {
		icon := item.IconName
		if icon == "" {
			icon = ""
		}
		segment.Blocks = append(segment.Blocks, Block{Icon: icon})
	}
	return segment
}

// MenuKindFor names the menu of the item owned by the given service.
func (t *Tray) MenuKindFor(service string) shell.MenuKind {
	return shell.KindTray(service)
}

// MenuViewFor returns the menu content for one item, or nil when the item
// has gone away.
func (t *Tray) MenuViewFor(service string) *MenuView {
	var item *TrayItem
	for i := range t.items {
		if t.items[i].Service == service {
			item = &t.items[i]
			break
		}
	}
	if item == nil {
		return nil
	}

	title := item.Title
	if title == "" {
		title = service
	}
	return &MenuView{
		Title: title,
		Items: []MenuItem{
			{Title: "Activate", OnActivate: t.itemCall(service, "Activate")},
			{Title: "Secondary activate", OnActivate: t.itemCall(service, "SecondaryActivate")},
		},
	}
}

func (t *Tray) itemCall(service, method string) func() Action {
	conn := t.conn
	kind := shell.KindTray(service)
	return func() Action {
		return Action{
			CloseMenu: &kind,
			Command: func() Message {
				if conn == nil {
					return nil
				}
				call := conn.Object(service, itemPath).Call(itemIface+"."+method, 0, int32(0), int32(0))
				if call.Err != nil {
					return nil
				}
				return trayActivated{}
			},
		}
	}
}

// Update implements Updater.
func (t *Tray) Update(msg Message) Action {
	if scanned, ok := msg.(trayScanned); ok {
		t.items = scanned.items
	}
	return Action{}
}

// Subscribe implements Subscriber: an initial scan of the watcher's
// registered items, then a rescan on every registration change.
func (t *Tray) Subscribe(ctx context.Context, messages chan<- Message) {
	if t.conn == nil {
		return
	}

	if err := t.conn.AddMatchSignal(
		dbus.WithMatchInterface(watcherIface),
		dbus.WithMatchObjectPath(watcherPath),
	); err != nil {
		t.logger.Warn("failed to match watcher signals", "error", err)
		return
	}

	signals := make(chan *dbus.Signal, 16)
	t.conn.Signal(signals)
	defer t.conn.RemoveSignal(signals)

	send := func() bool {
		select {
		case messages <- trayScanned{items: t.scan()}:
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
			if !strings.HasPrefix(sig.Name, watcherIface+".StatusNotifierItem") {
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

// scan reads the watcher's registered item list and each item's properties.
func (t *Tray) scan() []TrayItem {
	watcher := t.conn.Object(watcherName, watcherPath)

	v, err := watcher.GetProperty(watcherIface + ".RegisteredStatusNotifierItems")
	if err != nil {
		t.logger.Debug("no status notifier watcher on the bus", "error", err)
		return nil
	}
	var registered []string
	if err := v.Store(&registered); err != nil {
		return nil
	}

	var items []TrayItem
	for _, entry := range registered {
		// Entries are "busname/objectpath"; older items register the bus
		// name alone.
		service := entry
		if i := strings.Index(entry, "/"); i > 0 {
			service = entry[:i]
		}
		items = append(items, t.readItem(service))
	}
	return items
}

func (t *Tray) readItem(service string) TrayItem {
	item := TrayItem{Service: service}
	obj := t.conn.Object(service, itemPath)

	if v, err := obj.GetProperty(itemIface + ".Title"); err == nil {
		v.Store(&item.Title)
	}
	if v, err := obj.GetProperty(itemIface + ".IconName"); err == nil {
		v.Store(&item.IconName)
	}
	return item
}
