package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benchwire-project/benchwire-go/pkg/bench"
	"github.com/benchwire-project/benchwire-go/pkg/log"
	"github.com/benchwire-project/benchwire-go/pkg/profile"
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/session"
	"github.com/benchwire-project/benchwire-go/pkg/transport"
)

// ErrAlreadyOpen indicates an Open call for an endpoint that already
// has a live session.
var ErrAlreadyOpen = errors.New("endpoint already open")

// Class identifies the device family behind an endpoint.
type Class string

const (
	// ClassScope is a BenchWire oscilloscope.
	ClassScope Class = "SCOPE"
	// ClassPSW is a PSW series power supply.
	ClassPSW Class = "PSW"
	// ClassPFR is a PFR series power supply.
	ClassPFR Class = "PFR"
	// ClassPPX is a PPX series power supply.
	ClassPPX Class = "PPX"
	// ClassPEL is a PEL series electronic load.
	ClassPEL Class = "PEL"
	// ClassGDM is a GDM series multimeter.
	ClassGDM Class = "GDM"
	// ClassGeneric is a SCPI device of unrecognized family.
	ClassGeneric Class = "GENERIC"
)

// classifyModel maps a *IDN? model number to a device class.
func classifyModel(model string) Class {
	switch {
	case strings.HasPrefix(model, "BW-"):
		return ClassScope
	case strings.HasPrefix(model, "PSW"):
		return ClassPSW
	case strings.HasPrefix(model, "PFR"):
		return ClassPFR
	case strings.HasPrefix(model, "PPX"):
		return ClassPPX
	case strings.HasPrefix(model, "PEL"):
		return ClassPEL
	case strings.HasPrefix(model, "GDM"):
		return ClassGDM
	default:
		return ClassGeneric
	}
}

// Descriptor addresses one discovered device. Discover produces
// descriptors; Open turns one into a live session.
type Descriptor struct {
	// Class is the device family, derived from the probed model.
	Class Class

	// Transport selects the endpoint kind.
	Transport transport.Kind

	// Endpoint is the transport address: a device path for serial,
	// host:port for sockets, a fixed name for the internal endpoint.
	Endpoint string

	// Model and Serial are filled when identification succeeded
	// during discovery.
	Model  string
	Serial string

	// Baud is the line speed the device answered at. Zero selects
	// the class default.
	Baud int
}

// String renders the descriptor for device listings.
func (d Descriptor) String() string {
	s := fmt.Sprintf("%s %s %s", d.Class, d.Transport, d.Endpoint)
	if d.Model != "" {
		s += " (" + d.Model
		if d.Serial != "" {
			s += " " + d.Serial
		}
		s += ")"
	}
	return s
}

// InternalName is the endpoint address of the in-process scope.
const InternalName = "internal"

// DefaultBrowseWindow bounds the LAN sweep of one discovery pass.
const DefaultBrowseWindow = 3 * time.Second

// Options configures a Registry.
type Options struct {
	// Internal is the local firmware command handler. When set,
	// discovery lists the internal endpoint first and Open can build
	// sessions for it. Nil means no local instrument.
	Internal transport.Responder

	// Logger receives discovery and lifecycle events and is handed
	// to every session the registry opens. Nil disables event
	// logging.
	Logger log.Logger

	// BrowseWindow bounds the mDNS collection phase of one discovery
	// pass. Zero selects DefaultBrowseWindow.
	BrowseWindow time.Duration

	// ListPorts enumerates serial port candidates. Nil selects the
	// go.bug.st/serial enumerator. Tests inject fakes here.
	ListPorts func() ([]SerialPort, error)

	// Probe identifies the device on one serial port at one line
	// speed. Nil selects a real *IDN? exchange over the port.
	Probe func(ctx context.Context, path string, baud int) (scpi.Identity, error)

	// Browse collects SCPI services advertised on the LAN. Nil
	// selects an mDNS browse for the _scpi-raw._tcp service.
	Browse func(ctx context.Context, window time.Duration) ([]SocketService, error)
}

// Registry maps descriptors to live sessions and guards the
// open-endpoint set. It guarantees at most one session per physical
// endpoint.
type Registry struct {
	opts   Options
	logger log.Logger

	mu   sync.Mutex
	open map[string]*session.Session // keyed by endpoint ID
}

// New creates a registry. Injection points left nil in opts get
// their production defaults.
func New(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}
	if opts.BrowseWindow == 0 {
		opts.BrowseWindow = DefaultBrowseWindow
	}
	if opts.ListPorts == nil {
		opts.ListPorts = listSerialPorts
	}
	if opts.Probe == nil {
		opts.Probe = probeSerial
	}
	if opts.Browse == nil {
		opts.Browse = browseMDNS
	}
	return &Registry{
		opts:   opts,
		logger: logger,
		open:   make(map[string]*session.Session),
	}
}

// Open connects a session for the descriptor and records it under the
// endpoint ID. A second Open for a live endpoint fails with
// ErrAlreadyOpen; Close releases the endpoint for reopening. The
// returned session stays owned by the registry.
func (r *Registry) Open(ctx context.Context, d Descriptor) (*session.Session, error) {
	ep, sopts, err := r.endpointFor(d)
	if err != nil {
		return nil, err
	}

	sess := session.New(ep, sopts)

	r.mu.Lock()
	if _, exists := r.open[ep.ID()]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("endpoint %s: %w", ep.ID(), ErrAlreadyOpen)
	}
	r.open[ep.ID()] = sess
	r.mu.Unlock()

	if err := sess.Connect(ctx); err != nil {
		r.mu.Lock()
		delete(r.open, ep.ID())
		r.mu.Unlock()
		return nil, fmt.Errorf("open %s: %w", ep.ID(), err)
	}

	r.logDevice(sess, "open")
	return sess, nil
}

// Close shuts down the session for an endpoint and forgets it.
// Closing an endpoint that is not open is a no-op, so teardown paths
// can call it unconditionally.
func (r *Registry) Close(endpointID string) error {
	r.mu.Lock()
	sess, ok := r.open[endpointID]
	if ok {
		delete(r.open, endpointID)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}

	err := sess.Close()
	r.logDevice(sess, "closed")
	if err != nil {
		return fmt.Errorf("close %s: %w", endpointID, err)
	}
	return nil
}

// CloseAll closes every open session. The first close failure is
// reported after all endpoints have been released.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	sessions := make([]*session.Session, 0, len(r.open))
	for _, sess := range r.open {
		sessions = append(sessions, sess)
	}
	r.open = make(map[string]*session.Session)
	r.mu.Unlock()

	var firstErr error
	for _, sess := range sessions {
		if err := sess.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.logDevice(sess, "closed")
	}
	return firstErr
}

// Session returns the live session for an endpoint, if any.
func (r *Registry) Session(endpointID string) (*session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.open[endpointID]
	return sess, ok
}

// OpenEndpoints returns the IDs of all endpoints with live sessions,
// sorted.
func (r *Registry) OpenEndpoints() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.open))
	for id := range r.open {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// endpointFor builds the transport endpoint and session options for a
// descriptor. Wire transports get their class profile's pacing; the
// internal endpoint runs without a command gap.
func (r *Registry) endpointFor(d Descriptor) (transport.Endpoint, session.Options, error) {
	vocab, err := vocabularyFor(d.Class)
	if err != nil {
		return nil, session.Options{}, err
	}
	sopts := session.Options{Vocabulary: vocab, Logger: r.logger}

	switch d.Transport {
	case transport.KindInternal:
		if r.opts.Internal == nil {
			return nil, session.Options{}, fmt.Errorf("no internal responder bound: %w", transport.ErrEndpointUnavailable)
		}
		name := d.Endpoint
		if name == "" {
			name = InternalName
		}
		return transport.NewInternalEndpoint(name, r.opts.Internal), sopts, nil

	case transport.KindSerial:
		timing := wireTiming(d)
		sopts.Gap = timing.CommandGap()
		sopts.CommandTimeout = timing.CommandTimeout()
		sopts.ConnectTimeout = timing.ConnectTimeout()
		baud := d.Baud
		if baud == 0 {
			if p, ok := profile.BenchByClass(string(d.Class)); ok {
				baud = p.Baud
			}
		}
		return transport.NewSerialEndpoint(d.Endpoint, baud), sopts, nil

	case transport.KindSocket:
		timing := wireTiming(d)
		sopts.Gap = timing.CommandGap()
		sopts.CommandTimeout = timing.CommandTimeout()
		sopts.ConnectTimeout = timing.ConnectTimeout()
		return transport.NewSocketEndpoint(d.Endpoint), sopts, nil

	default:
		return nil, session.Options{}, fmt.Errorf("unknown transport kind %d", d.Transport)
	}
}

// vocabularyFor selects the command vocabulary for a device class.
func vocabularyFor(c Class) (*scpi.Vocabulary, error) {
	switch c {
	case ClassScope, ClassGeneric:
		return scpi.Default(), nil
	case ClassPSW, ClassPFR, ClassPPX:
		return bench.SupplyVocabulary(), nil
	case ClassPEL:
		return bench.LoadVocabulary(), nil
	case ClassGDM:
		return bench.MeterVocabulary(), nil
	default:
		return nil, fmt.Errorf("unknown device class %q", c)
	}
}

// wireTiming returns the pacing profile for a wire-attached device.
// Bench classes carry a fixed profile; scopes use their family
// profile when the model is known.
func wireTiming(d Descriptor) profile.Timing {
	if p, ok := profile.BenchByClass(string(d.Class)); ok {
		return p.Timing
	}
	if d.Model != "" {
		if p, err := profile.ForModel(d.Model); err == nil {
			return p.Timing
		}
	}
	return profile.Timing{
		CommandGapMS:     100,
		CommandTimeoutMS: 5000,
		ConnectTimeoutMS: 5000,
		AcquirePollMS:    100,
	}
}

// logDevice emits a registry-layer lifecycle event for a session.
func (r *Registry) logDevice(sess *session.Session, state string) {
	r.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: sess.ID(),
		Direction: log.DirectionOut,
		Layer:     log.LayerRegistry,
		Category:  log.CategoryState,
		Transport: sess.Endpoint().Kind().String(),
		Endpoint:  sess.Endpoint().ID(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityDevice,
			NewState: state,
		},
	})
}
