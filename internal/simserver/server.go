// ABOUTME: WebSocket server that streams simulated step_update frames per channel
// ABOUTME: Accepts play, pause, auto, and step commands from any connected client

package simserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/2389/symbios-live/internal/wire"
)

const (
	// DefaultInterval paces play and auto streaming.
	DefaultInterval = 500 * time.Millisecond

	clientBufferSize = 32
	shutdownTimeout  = 5 * time.Second
)

// ErrBackpressure is logged when a client's outbound queue is full and a
// frame is dropped for it.
var ErrBackpressure = errors.New("client write queue is full")

// Options configures a Server.
type Options struct {
	Interval       time.Duration
	MaxSteps       int
	DisruptionProb float64
	// Seed fixes the random source. Zero picks a random seed per channel.
	Seed uint64
	// Token, when set, is required as a bearer token on every socket.
	Token  string
	Logger *slog.Logger
}

// Server hosts one simulated park per channel. Every client on a channel sees
// the same frames and may steer the run.
type Server struct {
	opts   Options
	logger *slog.Logger
	mux    *http.ServeMux

	mu    sync.Mutex
	parks map[string]*park
}

type park struct {
	channel  string
	sim      *Simulation
	playing  bool
	autoLeft int
	clients  map[string]*client
}

type client struct {
	id  string
	out chan []byte
}

// New creates a server. Call Run to start the pacing loop.
func New(opts Options) *Server {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.DisruptionProb < 0 {
		opts.DisruptionProb = DefaultDisruptionProb
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger.With("component", "simserver"),
		mux:    http.NewServeMux(),
		parks:  make(map[string]*park),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ws/{channel}", s.handleSocket)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run drives play and auto streaming until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// ListenAndServe serves on addr and runs the pacing loop until ctx is
// cancelled, then shuts the listener down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("fake simulation listening", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Tick advances every park that is playing or has auto steps left.
func (s *Server) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.parks {
		switch {
		case p.playing:
			s.emit(p)
		case p.autoLeft > 0:
			p.autoLeft--
			s.emit(p)
		}
	}
}

// Clients returns the number of sockets connected to channel.
func (s *Server) Clients(channel string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.parks[channel]; ok {
		return len(p.clients)
	}
	return 0
}

// Apply runs cmd against channel's park.
func (s *Server) Apply(channel string, cmd wire.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.parkLocked(channel)
	switch cmd.Action {
	case wire.ActionPlay:
		p.playing = true
	case wire.ActionPause:
		p.playing = false
		p.autoLeft = 0
	case wire.ActionStep:
		s.emit(p)
	case wire.ActionAuto:
		steps := cmd.Steps
		if steps <= 0 {
			steps = wire.DefaultAutoSteps
		}
		p.autoLeft = steps
	}
	s.logger.Debug("command applied", "channel", channel, "command", cmd.String(), "playing", p.playing, "auto_left", p.autoLeft)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	if s.opts.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.opts.Token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	channel := r.PathValue("channel")
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Warn("failed to accept", "error", err)
		return
	}

	c := &client{id: uuid.New().String(), out: make(chan []byte, clientBufferSize)}
	s.register(channel, c)
	defer s.unregister(channel, c)

	logger := s.logger.With("channel", channel, "client_id", c.id)
	logger.Info("client connected")

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		return s.readLoop(ctx, channel, conn, logger)
	})
	g.Go(func() error {
		return writeLoop(ctx, conn, c.out)
	})

	err = g.Wait()
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		logger.Info("client disconnected")
		conn.Close(websocket.StatusNormalClosure, "")
	default:
		logger.Debug("client connection ended", "error", err)
		conn.CloseNow()
	}
}

func (s *Server) readLoop(ctx context.Context, channel string, conn *websocket.Conn, logger *slog.Logger) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		cmd, err := wire.DecodeCommand(data)
		if err != nil {
			logger.Warn("ignoring bad command", "error", err)
			continue
		}
		s.Apply(channel, cmd)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-out:
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				return err
			}
		}
	}
}

func (s *Server) register(channel string, c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parkLocked(channel).clients[c.id] = c
}

func (s *Server) unregister(channel string, c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.parks[channel]; ok {
		delete(p.clients, c.id)
	}
}

func (s *Server) parkLocked(channel string) *park {
	p, ok := s.parks[channel]
	if ok {
		return p
	}
	seed := s.opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	p = &park{
		channel: channel,
		sim:     NewSimulation(s.opts.MaxSteps, s.opts.DisruptionProb, rand.New(rand.NewPCG(seed, seed))),
		clients: make(map[string]*client),
	}
	s.parks[channel] = p
	return p
}

// emit advances p one step and queues the frame for every client.
func (s *Server) emit(p *park) {
	ev := p.sim.Step()
	frame, err := wire.EncodeStepEvent(ev)
	if err != nil {
		s.logger.Error("encoding step", "channel", p.channel, "error", err)
		return
	}
	for id, c := range p.clients {
		select {
		case c.out <- frame:
		default:
			s.logger.Warn("dropping frame", "channel", p.channel, "client_id", id, "step", ev.StepIndex, "error", ErrBackpressure)
		}
	}
}
