package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/benchwire-project/benchwire-go/pkg/log"
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/transport"
)

// Default timing windows, used when Options leaves them zero.
const (
	DefaultCommandTimeout = 5 * time.Second
	DefaultConnectTimeout = 5 * time.Second
)

// Options configures a session.
type Options struct {
	// Vocabulary encodes commands and sizes responses. Nil selects
	// scpi.Default().
	Vocabulary *scpi.Vocabulary

	// Gap is the minimum spacing between two commands on the wire.
	// Zero disables gap enforcement (internal transport).
	Gap time.Duration

	// CommandTimeout bounds one command round trip.
	CommandTimeout time.Duration

	// ConnectTimeout bounds connection establishment.
	ConnectTimeout time.Duration

	// Logger receives session events. Nil disables event logging.
	Logger log.Logger
}

// Session is a command session with one instrument endpoint.
type Session struct {
	id       string
	endpoint transport.Endpoint
	vocab    *scpi.Vocabulary
	opts     Options
	logger   log.Logger

	mu        sync.Mutex
	state     State
	conn      transport.Conn
	rbuf      []byte
	lastWrite time.Time
}

// New creates a session for an endpoint. The session starts
// Disconnected; call Connect before Send.
func New(endpoint transport.Endpoint, opts Options) *Session {
	if opts.Vocabulary == nil {
		opts.Vocabulary = scpi.Default()
	}
	if opts.CommandTimeout == 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	return &Session{
		id:       uuid.New().String(),
		endpoint: endpoint,
		vocab:    opts.Vocabulary,
		opts:     opts,
		logger:   logger,
		state:    StateDisconnected,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Endpoint returns the endpoint this session talks to.
func (s *Session) Endpoint() transport.Endpoint {
	return s.endpoint
}

// Vocabulary returns the codec vocabulary in use.
func (s *Session) Vocabulary() *scpi.Vocabulary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vocab
}

// Extend adds vocabulary entries to the session's codec, bumping its
// minor version. Callers use it for commands beyond the device class
// vocabulary, such as raw passthrough in diagnostic tools.
func (s *Session) Extend(entries map[scpi.Key]scpi.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocab = s.vocab.Extend(entries)
}

// Logger returns the event logger this session writes to. Callers
// layered on top of the session use it to emit their own events into
// the same stream.
func (s *Session) Logger() log.Logger {
	return s.logger
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect establishes the transport connection.
// Legal from Disconnected and Closed; a Suspect session must use
// Reconnect instead.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateConnected, StateConnecting:
		s.mu.Unlock()
		return ErrAlreadyConnected
	case StateSuspect:
		s.mu.Unlock()
		return ErrSuspect
	case StateClosing:
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.state
	s.state = StateConnecting
	s.mu.Unlock()
	s.logState(old, StateConnecting, "")

	return s.establish(ctx)
}

// Reconnect tears down the current connection and establishes a fresh
// one with an empty read buffer. It is the only exit from Suspect.
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosing, StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateConnecting:
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	old := s.state
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.rbuf = nil
	s.state = StateConnecting
	s.mu.Unlock()
	s.logState(old, StateConnecting, "reconnect")

	return s.establish(ctx)
}

// establish runs the shared tail of Connect and Reconnect: the session
// is already Connecting.
func (s *Session) establish(ctx context.Context) error {
	cctx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	conn, err := s.endpoint.Connect(cctx)

	s.mu.Lock()
	if err != nil {
		s.state = StateDisconnected
		s.mu.Unlock()
		s.logState(StateConnecting, StateDisconnected, err.Error())
		return fmt.Errorf("connect %s: %w", s.endpoint.ID(), err)
	}
	s.conn = conn
	s.rbuf = nil
	s.state = StateConnected
	s.mu.Unlock()
	s.logState(StateConnecting, StateConnected, "")
	return nil
}

// Close releases the connection. Close is idempotent and never errors
// once the session is Closed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	old := s.state
	s.state = StateClosing
	var closeErr error
	if s.conn != nil {
		closeErr = s.conn.Close()
		s.conn = nil
	}
	s.rbuf = nil
	s.state = StateClosed
	s.mu.Unlock()
	s.logState(old, StateClosed, "")
	return closeErr
}

// markSuspectLocked flags the session after a timeout or wire fault.
// Caller holds s.mu.
func (s *Session) markSuspectLocked(reason string) {
	if s.state != StateConnected {
		return
	}
	s.state = StateSuspect
	s.logState(StateConnected, StateSuspect, reason)
}

// logState emits a state change event.
func (s *Session) logState(old, new State, reason string) {
	s.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Direction: log.DirectionOut,
		Layer:     log.LayerSession,
		Category:  log.CategoryState,
		Transport: s.endpoint.Kind().String(),
		Endpoint:  s.endpoint.ID(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: old.String(),
			NewState: new.String(),
			Reason:   reason,
		},
	})
}

// logCommand emits a command exchange event.
func (s *Session) logCommand(dir log.Direction, cmd scpi.Command, wire string, resp *scpi.Response, elapsed time.Duration) {
	ev := log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Direction: dir,
		Layer:     log.LayerSession,
		Category:  log.CategoryCommand,
		Transport: s.endpoint.Kind().String(),
		Endpoint:  s.endpoint.ID(),
		Command: &log.CommandEvent{
			Name: cmd.Name(),
			Wire: strings.TrimSuffix(wire, "\n"),
		},
	}
	if resp != nil {
		ev.Command.Payload = resp.Payload
		ev.Command.BlockSize = len(resp.Block)
	}
	if elapsed > 0 {
		ev.Command.Elapsed = &elapsed
	}
	s.logger.Log(ev)
}

// logError emits an error event.
func (s *Session) logError(context string, err error) {
	s.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: s.id,
		Direction: log.DirectionIn,
		Layer:     log.LayerSession,
		Category:  log.CategoryError,
		Transport: s.endpoint.Kind().String(),
		Endpoint:  s.endpoint.ID(),
		Error: &log.ErrorEventData{
			Layer:   log.LayerSession,
			Message: err.Error(),
			Context: context,
		},
	})
}
