package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/tracknote/internal/decode"
	"github.com/jmylchreest/tracknote/internal/listener"
)

const (
	// maxPending bounds the Notify calls awaiting a reply.
	maxPending = 256
	// maxTracked bounds the notification ids kept for close routing.
	maxTracked = 256

	busName = "org.freedesktop.DBus"
)

// MonitorOptions configures a Monitor.
type MonitorOptions struct {
	Source      string   // Source id reported for the player, e.g. "spotify"
	AppNames    []string // Extra app names, lower-cased, that map to Source
	MPRISPlayer string   // MPRIS bus name suffix, e.g. "spotify"
}

type callKey struct {
	sender string
	serial uint32
}

// Monitor passively observes notification traffic without claiming the
// notification bus name, so it runs alongside any notification daemon.
// It implements listener.Source.
type Monitor struct {
	opts   MonitorOptions
	logger *slog.Logger

	mu      sync.Mutex
	conn    *dbus.Conn // monitor connection, eavesdropping only
	bus     *dbus.Conn // regular connection for method calls
	pending map[callKey]string
	ids     map[uint32]string // notification id -> source id
	player  string            // unique name of the MPRIS player, if seen
}

// NewMonitor creates a new notification monitor.
func NewMonitor(opts MonitorOptions, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		opts:    opts,
		logger:  logger,
		pending: make(map[callKey]string),
		ids:     make(map[uint32]string),
	}
}

// Connect starts monitoring the session bus.
func (m *Monitor) Connect(ctx context.Context) (<-chan listener.Event, error) {
	// Drop connections left over from a previous session.
	if err := m.Close(); err != nil {
		m.logger.Debug("failed to close previous connections", "error", err)
	}

	bus, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	server := nameOwner(ctx, bus, DBusBusName)
	player := ""
	if m.opts.MPRISPlayer != "" {
		player = nameOwner(ctx, bus, mprisPrefix+m.opts.MPRISPlayer)
	}

	rules := m.rules(server)
	if err := becomeMonitor(ctx, conn, rules); err != nil {
		// BecomeMonitor might not be available (older D-Bus versions)
		m.logger.Warn("BecomeMonitor not available, trying AddMatch", "error", err)
		if err := addEavesdropMatches(ctx, conn, rules); err != nil {
			conn.Close()
			bus.Close()
			return nil, err
		}
	}

	m.mu.Lock()
	m.conn, m.bus, m.player = conn, bus, player
	m.mu.Unlock()

	ch := make(chan *dbus.Message, 100)
	conn.Eavesdrop(ch)

	out := make(chan listener.Event, 16)
	go m.process(ctx, ch, out)

	m.logger.Info("started D-Bus notification monitor", "server", server, "player", player)
	return out, nil
}

// Active returns the track the MPRIS player reports as playing, if any.
func (m *Monitor) Active(ctx context.Context) ([]decode.Payload, error) {
	m.mu.Lock()
	bus := m.bus
	m.mu.Unlock()

	if bus == nil || m.opts.MPRISPlayer == "" {
		return nil, nil
	}

	p, ok, err := readPlayer(ctx, bus, mprisPrefix+m.opts.MPRISPlayer, m.opts.Source)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return []decode.Payload{p}, nil
}

// Close stops the monitor.
func (m *Monitor) Close() error {
	m.mu.Lock()
	conn, bus := m.conn, m.bus
	m.conn, m.bus = nil, nil
	m.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
	}
	if bus != nil {
		if cerr := bus.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// rules returns the match rules to monitor. Player signals are matched by
// path rather than sender so a player started later is still heard; its
// unique name is tracked through NameOwnerChanged.
func (m *Monitor) rules(server string) []string {
	rules := []string{
		"type='method_call',interface='" + DBusInterface + "',member='Notify'",
		"type='signal',interface='" + DBusInterface + "',member='NotificationClosed'",
	}
	if server != "" {
		rules = append(rules, "type='method_return',sender='"+server+"'")
	}
	if m.opts.MPRISPlayer != "" {
		rules = append(rules,
			"type='signal',interface='"+propertiesInterface+"',member='PropertiesChanged',path='"+mprisPath+"'",
			"type='signal',sender='"+busName+"',interface='"+busName+"',member='NameOwnerChanged',arg0='"+mprisPrefix+m.opts.MPRISPlayer+"'",
		)
	}
	return rules
}

func (m *Monitor) process(ctx context.Context, ch <-chan *dbus.Message, out chan<- listener.Event) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			for _, ev := range m.handle(msg) {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handle maps one bus message to listener events. Notify calls are posted
// immediately; their replies link the server-assigned id to the source so a
// later NotificationClosed can be routed.
func (m *Monitor) handle(msg *dbus.Message) []listener.Event {
	switch msg.Type {
	case dbus.TypeMethodCall:
		if header(msg, dbus.FieldInterface) != DBusInterface || header(msg, dbus.FieldMember) != "Notify" {
			return nil
		}
		return m.notify(header(msg, dbus.FieldSender), msg.Serial(), msg.Body)

	case dbus.TypeMethodReply:
		serial, ok := msg.Headers[dbus.FieldReplySerial].Value().(uint32)
		if !ok {
			return nil
		}
		m.reply(header(msg, dbus.FieldDestination), serial, msg.Body)

	case dbus.TypeSignal:
		switch header(msg, dbus.FieldMember) {
		case "NotificationClosed":
			return m.closed(msg)
		case "PropertiesChanged":
			return m.propertiesChanged(msg)
		case "NameOwnerChanged":
			return m.ownerChanged(msg)
		}
	}
	return nil
}

func (m *Monitor) notify(sender string, serial uint32, body []any) []listener.Event {
	n, ok := parseNotify(body)
	if !ok {
		m.logger.Warn("malformed Notify call", "body_len", len(body))
		return nil
	}
	p := n.Payload()
	p.SourceID = m.alias(p.SourceID)

	// Only the player's notifications can end playback, so only they are
	// linked to ids.
	if p.SourceID == m.opts.Source && m.opts.Source != "" {
		m.mu.Lock()
		if len(m.pending) >= maxPending {
			clear(m.pending)
		}
		m.pending[callKey{sender, serial}] = p.SourceID
		if n.ReplacesID != 0 {
			m.track(n.ReplacesID, p.SourceID)
		}
		m.mu.Unlock()
	}

	m.logger.Debug("captured notification", "source", p.SourceID, "summary", n.Summary)
	return []listener.Event{{Kind: listener.Posted, Payload: p}}
}

func (m *Monitor) reply(dest string, serial uint32, body []any) {
	if len(body) == 0 {
		return
	}
	key := callKey{dest, serial}

	m.mu.Lock()
	defer m.mu.Unlock()
	source, ok := m.pending[key]
	if !ok {
		return
	}
	delete(m.pending, key)
	if id, ok := body[0].(uint32); ok {
		m.track(id, source)
	}
}

// track links id to source. Callers hold m.mu.
func (m *Monitor) track(id uint32, source string) {
	if _, ok := m.ids[id]; !ok && len(m.ids) >= maxTracked {
		clear(m.ids)
	}
	m.ids[id] = source
}

func (m *Monitor) closed(msg *dbus.Message) []listener.Event {
	if header(msg, dbus.FieldInterface) != DBusInterface || len(msg.Body) < 2 {
		return nil
	}
	id, ok := msg.Body[0].(uint32)
	if !ok {
		return nil
	}
	reason, _ := msg.Body[1].(uint32)

	m.mu.Lock()
	source, ok := m.ids[id]
	if ok {
		delete(m.ids, id)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	r := CloseReason(reason)
	m.logger.Debug("notification closed", "id", id, "source", source, "reason", r.String())
	if !r.EndsPlayback() {
		return nil
	}
	return []listener.Event{{Kind: listener.Removed, Payload: decode.Payload{SourceID: source}}}
}

func (m *Monitor) propertiesChanged(msg *dbus.Message) []listener.Event {
	if header(msg, dbus.FieldInterface) != propertiesInterface || len(msg.Body) < 2 {
		return nil
	}
	m.mu.Lock()
	player := m.player
	m.mu.Unlock()
	if player == "" || header(msg, dbus.FieldSender) != player {
		return nil
	}

	iface, _ := msg.Body[0].(string)
	changed, _ := msg.Body[1].(map[string]dbus.Variant)
	if iface != mprisPlayerInterface {
		return nil
	}
	status, ok := changed["PlaybackStatus"]
	if !ok {
		return nil
	}
	if s, _ := status.Value().(string); s == statusStopped {
		m.logger.Debug("player stopped", "player", m.opts.MPRISPlayer)
		return []listener.Event{{Kind: listener.Removed, Payload: decode.Payload{SourceID: m.opts.Source}}}
	}
	return nil
}

// ownerChanged follows the MPRIS player's unique name. A player that
// leaves the bus ends playback.
func (m *Monitor) ownerChanged(msg *dbus.Message) []listener.Event {
	if header(msg, dbus.FieldSender) != busName || len(msg.Body) < 3 || m.opts.MPRISPlayer == "" {
		return nil
	}
	name, _ := msg.Body[0].(string)
	oldOwner, _ := msg.Body[1].(string)
	newOwner, _ := msg.Body[2].(string)
	if name != mprisPrefix+m.opts.MPRISPlayer {
		return nil
	}

	m.mu.Lock()
	m.player = newOwner
	m.mu.Unlock()

	m.logger.Debug("player owner changed", "player", m.opts.MPRISPlayer, "old", oldOwner, "new", newOwner)
	if oldOwner != "" && newOwner == "" {
		return []listener.Event{{Kind: listener.Removed, Payload: decode.Payload{SourceID: m.opts.Source}}}
	}
	return nil
}

// alias maps configured app names onto the player source id.
func (m *Monitor) alias(source string) string {
	if slices.Contains(m.opts.AppNames, source) {
		return m.opts.Source
	}
	return source
}

func header(msg *dbus.Message, field dbus.HeaderField) string {
	v, ok := msg.Headers[field]
	if !ok {
		return ""
	}
	switch s := v.Value().(type) {
	case string:
		return s
	case dbus.ObjectPath:
		return string(s)
	}
	return ""
}

func becomeMonitor(ctx context.Context, conn *dbus.Conn, rules []string) error {
	return conn.BusObject().CallWithContext(ctx,
		"org.freedesktop.DBus.Monitoring.BecomeMonitor", 0, rules, uint32(0)).Err
}

// addEavesdropMatches uses the older AddMatch API for eavesdropping.
func addEavesdropMatches(ctx context.Context, conn *dbus.Conn, rules []string) error {
	for _, rule := range rules {
		err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.AddMatch", 0, rule+",eavesdrop='true'").Err
		if err != nil {
			return fmt.Errorf("failed to add match rule (eavesdrop may require permissions): %w", err)
		}
	}
	return nil
}

// nameOwner returns the unique name owning name, or "" if it has no owner.
func nameOwner(ctx context.Context, conn *dbus.Conn, name string) string {
	var owner string
	err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.GetNameOwner", 0, name).Store(&owner)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(owner)
}
