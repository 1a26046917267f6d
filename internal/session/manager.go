// ABOUTME: Connection manager actor owning the socket, reconnect timer, and live state
// ABOUTME: Serializes dial results, frames, timer firings, and consumer calls on one goroutine

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/2389/symbios-live/internal/history"
	"github.com/2389/symbios-live/internal/live"
	"github.com/2389/symbios-live/internal/metrics"
	"github.com/2389/symbios-live/internal/transport"
	"github.com/2389/symbios-live/internal/wire"
)

const (
	// DefaultManualDelay separates a manual reconnect from the socket it
	// just closed.
	DefaultManualDelay = 150 * time.Millisecond
	// DefaultWriteTimeout bounds a single outbound command write.
	DefaultWriteTimeout = 5 * time.Second

	eventBufferSize          = 64
	malformedWarningInterval = 10 * time.Second
)

// ErrNoDialer is returned by NewManager when Options.Dialer is nil.
var ErrNoDialer = errors.New("session: dialer is required")

// Publisher receives every Update the manager produces, in order.
type Publisher interface {
	Publish(Update)
}

// Options configures a Manager.
type Options struct {
	Dialer  transport.Dialer
	Backoff Backoff
	// ManualDelay is the pause between Reconnect and the new dial.
	ManualDelay time.Duration
	// InitialCommand is sent on every fresh connection. Nil sends nothing.
	InitialCommand  *wire.Command
	HistoryCapacity int
	WriteTimeout    time.Duration
	Clock           Clock
	Metrics         *metrics.Collector
	Publisher       Publisher
	Logger          *slog.Logger
}

// DefaultInitialCommand pauses the simulation so every fresh connection
// starts from a known run state.
func DefaultInitialCommand() *wire.Command {
	return &wire.Command{Action: wire.ActionPause}
}

type timerKind int

const (
	timerRetry timerKind = iota
	timerManual
)

type (
	connectEvent   struct{}
	reconnectEvent struct{}
	closeEvent     struct{}
	sendEvent      struct {
		cmd    wire.Command
		toggle bool
		reply  chan bool
	}
	dialedEvent struct {
		gen  uint64
		conn transport.Conn
		err  error
	}
	frameEvent struct {
		gen  uint64
		data []byte
	}
	readErrorEvent struct {
		gen uint64
		err error
	}
	timerEvent struct {
		gen  uint64
		kind timerKind
	}
)

// Manager runs the connection state machine. All state below the channel
// fields is owned by the actor goroutine started in NewManager.
type Manager struct {
	events    chan any
	done      chan struct{}
	closeOnce sync.Once
	current   atomic.Pointer[Update]

	dialer       transport.Dialer
	backoff      Backoff
	manualDelay  time.Duration
	initial      *wire.Command
	writeTimeout time.Duration
	clock        Clock
	metrics      *metrics.Collector
	publisher    Publisher
	logger       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	phase     live.Phase
	snapshot  *live.Snapshot
	agg       *live.Aggregator
	attempt   int
	exhausted bool
	playing   bool

	conn       transport.Conn
	connID     string
	connGen    uint64
	connCtx    context.Context
	connCancel context.CancelFunc

	timer    Timer
	timerGen uint64

	malformed    int
	malformedLog rate.Sometimes
}

// NewManager validates opts, fills defaults, and starts the actor in the
// Idle phase. Call Connect to begin dialing.
func NewManager(opts Options) (*Manager, error) {
	if opts.Dialer == nil {
		return nil, ErrNoDialer
	}
	if opts.Backoff == (Backoff{}) {
		opts.Backoff = DefaultBackoff()
	}
	if err := opts.Backoff.Validate(); err != nil {
		return nil, err
	}
	if opts.ManualDelay <= 0 {
		opts.ManualDelay = DefaultManualDelay
	}
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = history.DefaultCapacity
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		events:       make(chan any, eventBufferSize),
		done:         make(chan struct{}),
		dialer:       opts.Dialer,
		backoff:      opts.Backoff,
		manualDelay:  opts.ManualDelay,
		initial:      opts.InitialCommand,
		writeTimeout: opts.WriteTimeout,
		clock:        opts.Clock,
		metrics:      opts.Metrics,
		publisher:    opts.Publisher,
		logger:       opts.Logger.With("component", "session"),
		ctx:          ctx,
		cancel:       cancel,
		phase:        live.PhaseIdle,
		agg:          live.NewAggregator(opts.HistoryCapacity),
		malformedLog: rate.Sometimes{First: 1, Interval: malformedWarningInterval},
	}
	m.publish()

	go m.run()
	return m, nil
}

// Connect starts dialing unless a connection is already open or in
// progress. It does not wait for the outcome.
func (m *Manager) Connect() {
	m.post(connectEvent{})
}

// Reconnect drops the current connection and history, resets the retry
// counter, and dials again after the manual delay. Calls made inside that
// delay replace the pending attempt.
func (m *Manager) Reconnect() {
	m.post(reconnectEvent{})
}

// SendCommand writes cmd when the connection is open and reports whether it
// was sent. Commands issued while disconnected are dropped, not queued.
func (m *Manager) SendCommand(cmd wire.Command) bool {
	return m.send(sendEvent{cmd: cmd})
}

// TogglePlay sends pause when the simulation is playing and play otherwise.
func (m *Manager) TogglePlay() bool {
	return m.send(sendEvent{toggle: true})
}

func (m *Manager) send(ev sendEvent) bool {
	ev.reply = make(chan bool, 1)
	if !m.post(ev) {
		return false
	}
	select {
	case ok := <-ev.reply:
		return ok
	case <-m.done:
		select {
		case ok := <-ev.reply:
			return ok
		default:
			return false
		}
	}
}

// Current returns the latest published state.
func (m *Manager) Current() Update {
	return *m.current.Load()
}

// Close tears the session down: the pending timer is cancelled, the socket
// closed, and the phase returns to Idle. No retry follows. Close waits for
// the actor to exit and is safe to call more than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.post(closeEvent{})
	})
	<-m.done
}

// Done is closed once the manager has been torn down.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

func (m *Manager) post(ev any) bool {
	select {
	case m.events <- ev:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) run() {
	defer close(m.done)
	for ev := range m.events {
		if m.handle(ev) {
			return
		}
	}
}

// handle applies one event and reports whether the actor should stop.
func (m *Manager) handle(ev any) bool {
	switch ev := ev.(type) {
	case connectEvent:
		m.connect()
	case reconnectEvent:
		m.reconnect()
	case sendEvent:
		cmd := ev.cmd
		if ev.toggle {
			cmd = wire.Command{Action: wire.ActionPlay}
			if m.playing {
				cmd = wire.Command{Action: wire.ActionPause}
			}
		}
		ev.reply <- m.write(cmd)
	case dialedEvent:
		m.dialed(ev)
	case frameEvent:
		m.frame(ev)
	case readErrorEvent:
		m.readError(ev)
	case timerEvent:
		m.timerFired(ev)
	case closeEvent:
		m.teardown()
		return true
	default:
		m.logger.Warn("unknown session event", "event", ev)
	}
	return false
}

func (m *Manager) connect() {
	if m.phase == live.PhaseConnecting || m.phase == live.PhaseOpen {
		m.logger.Debug("connect ignored", "phase", m.phase)
		return
	}
	m.cancelTimer()
	m.dial()
}

func (m *Manager) dial() {
	m.connGen++
	gen := m.connGen
	m.connID = uuid.New().String()
	m.connCtx, m.connCancel = context.WithCancel(m.ctx)
	ctx := m.connCtx

	m.logger.Info("connecting", "conn_id", m.connID, "attempt", m.attempt)
	m.setPhase(live.PhaseConnecting)

	go func() {
		conn, err := m.dialer.Dial(ctx)
		if !m.post(dialedEvent{gen: gen, conn: conn, err: err}) && conn != nil {
			_ = conn.Close()
		}
	}()
}

func (m *Manager) dialed(ev dialedEvent) {
	if ev.gen != m.connGen {
		if ev.conn != nil {
			go ev.conn.Close()
		}
		return
	}
	if ev.err != nil {
		m.logger.Warn("connect failed", "conn_id", m.connID, "attempt", m.attempt, "error", ev.err)
		m.dropConn()
		m.setPhase(live.PhaseFailed)
		m.scheduleRetry()
		return
	}

	m.conn = ev.conn
	m.attempt = 0
	m.exhausted = false
	m.playing = false
	m.logger.Info("connected", "conn_id", m.connID)
	m.setPhase(live.PhaseOpen)

	go m.readLoop(m.connCtx, ev.gen, ev.conn)

	if m.initial != nil {
		m.write(*m.initial)
	}
}

// readLoop forwards frames to the actor in arrival order until the
// connection ends.
func (m *Manager) readLoop(ctx context.Context, gen uint64, conn transport.Conn) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			m.post(readErrorEvent{gen: gen, err: err})
			return
		}
		if !m.post(frameEvent{gen: gen, data: data}) {
			return
		}
	}
}

func (m *Manager) frame(ev frameEvent) {
	if ev.gen != m.connGen || m.phase != live.PhaseOpen {
		return
	}

	step, err := wire.Decode(ev.data)
	switch {
	case errors.Is(err, wire.ErrIgnoredFrame):
		m.metrics.Frame(metrics.FrameIgnored)
		m.logger.Debug("ignoring frame", "reason", err)
	case err != nil:
		m.malformed++
		m.metrics.Frame(metrics.FrameMalformed)
		m.malformedLog.Do(func() {
			m.logger.Warn("dropping malformed frame", "conn_id", m.connID, "error", err, "dropped_total", m.malformed)
		})
	default:
		m.snapshot = m.agg.Fold(m.snapshot, step)
		m.metrics.Frame(metrics.FrameAccepted)
		m.metrics.SetStep(step.StepIndex)
		m.publish()
	}
}

func (m *Manager) readError(ev readErrorEvent) {
	if ev.gen != m.connGen {
		return
	}
	m.dropConn()
	if transport.IsCleanClose(ev.err) {
		m.logger.Info("connection closed", "conn_id", m.connID)
		m.setPhase(live.PhaseClosed)
	} else {
		m.logger.Warn("connection failed", "conn_id", m.connID, "error", ev.err)
		m.setPhase(live.PhaseFailed)
	}
	m.scheduleRetry()
}

func (m *Manager) scheduleRetry() {
	if m.backoff.Exhausted(m.attempt) {
		m.exhausted = true
		m.metrics.Exhausted()
		m.logger.Warn("reconnect attempts exhausted", "attempts", m.attempt, "phase", m.phase)
		m.publish()
		return
	}
	delay := m.backoff.Delay(m.attempt)
	m.logger.Info("scheduling reconnect", "delay", delay, "attempt", m.attempt+1)
	m.armTimer(delay, timerRetry)
}

func (m *Manager) timerFired(ev timerEvent) {
	if ev.gen != m.timerGen || m.timer == nil {
		return
	}
	m.timer = nil

	if ev.kind == timerRetry {
		m.attempt++
		m.metrics.Reconnect(metrics.ReconnectAuto)
	}
	if m.phase == live.PhaseConnecting || m.phase == live.PhaseOpen {
		return
	}
	m.dial()
}

func (m *Manager) reconnect() {
	m.cancelTimer()
	m.dropConn()
	m.attempt = 0
	m.exhausted = false
	m.playing = false
	m.agg.Reset()
	m.snapshot = nil
	m.metrics.Reconnect(metrics.ReconnectManual)
	m.logger.Info("manual reconnect", "delay", m.manualDelay)

	if m.phase == live.PhaseOpen || m.phase == live.PhaseConnecting {
		m.setPhase(live.PhaseClosed)
	} else {
		m.publish()
	}
	m.armTimer(m.manualDelay, timerManual)
}

func (m *Manager) write(cmd wire.Command) bool {
	action := string(cmd.Action)
	if m.phase != live.PhaseOpen || m.conn == nil {
		m.metrics.Command(action, metrics.CommandDropped)
		m.logger.Debug("dropping command while disconnected", "command", cmd.String(), "phase", m.phase)
		return false
	}

	data, err := wire.EncodeCommand(cmd)
	if err != nil {
		m.metrics.Command(action, metrics.CommandFailed)
		m.logger.Warn("invalid command", "command", cmd.String(), "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(m.connCtx, m.writeTimeout)
	defer cancel()
	if err := m.conn.Write(ctx, data); err != nil {
		m.metrics.Command(action, metrics.CommandFailed)
		m.logger.Warn("command write failed", "conn_id", m.connID, "command", cmd.String(), "error", err)
		return false
	}

	m.metrics.Command(action, metrics.CommandSent)
	m.logger.Debug("command sent", "conn_id", m.connID, "command", cmd.String())

	switch cmd.Action {
	case wire.ActionPlay:
		m.playing = true
	case wire.ActionPause:
		m.playing = false
	default:
		return true
	}
	m.publish()
	return true
}

func (m *Manager) teardown() {
	m.cancelTimer()
	m.dropConn()
	m.cancel()
	m.playing = false
	m.logger.Info("session closed")
	m.setPhase(live.PhaseIdle)
}

// dropConn abandons the current connection. Bumping the generation makes
// any event still in flight from it stale.
func (m *Manager) dropConn() {
	m.connGen++
	if m.connCancel != nil {
		m.connCancel()
		m.connCancel = nil
	}
	if m.conn != nil {
		conn := m.conn
		m.conn = nil
		go conn.Close()
	}
}

func (m *Manager) armTimer(d time.Duration, kind timerKind) {
	m.cancelTimer()
	m.timerGen++
	gen := m.timerGen
	m.timer = m.clock.AfterFunc(d, func() {
		m.post(timerEvent{gen: gen, kind: kind})
	})
}

func (m *Manager) cancelTimer() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.timerGen++
}

func (m *Manager) setPhase(p live.Phase) {
	m.phase = p
	m.snapshot = m.snapshot.WithPhase(p)
	m.metrics.SetPhase(p)
	m.publish()
}

func (m *Manager) publish() {
	u := Update{
		Phase:     m.phase,
		Snapshot:  m.snapshot,
		Attempt:   m.attempt,
		Exhausted: m.exhausted,
		Playing:   m.playing,
	}
	m.current.Store(&u)
	if m.publisher != nil {
		m.publisher.Publish(u)
	}
}
