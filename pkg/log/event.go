package log

import "time"

// Event represents an instrument log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates command flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Transport names the endpoint kind (internal, serial, socket).
	Transport string `cbor:"6,keyasint,omitempty"`

	// Endpoint is the endpoint address (port path or host:port).
	Endpoint string `cbor:"7,keyasint,omitempty"`

	// Model is the instrument model (populated after identification).
	Model string `cbor:"8,keyasint,omitempty"`

	// Serial is the instrument serial number (populated after identification).
	Serial string `cbor:"9,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Command     *CommandEvent     `cbor:"10,keyasint,omitempty"` // Command exchanges
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"` // Session/acquisition state
	Discovery   *DiscoveryEvent   `cbor:"12,keyasint,omitempty"` // Registry discovery
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of command flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming response.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing command.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the byte transport layer (raw reads and writes).
	LayerTransport Layer = 0
	// LayerCodec is the command encoding layer (framing and parsing).
	LayerCodec Layer = 1
	// LayerSession is the session layer (lifecycle and exchanges).
	LayerSession Layer = 2
	// LayerInstrument is the instrument module layer.
	LayerInstrument Layer = 3
	// LayerRegistry is the discovery and registry layer.
	LayerRegistry Layer = 4
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerCodec:
		return "CODEC"
	case LayerSession:
		return "SESSION"
	case LayerInstrument:
		return "INSTRUMENT"
	case LayerRegistry:
		return "REGISTRY"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryCommand indicates a command exchange (set or query).
	CategoryCommand Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryDiscovery indicates a discovered endpoint.
	CategoryDiscovery Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "COMMAND"
	case CategoryState:
		return "STATE"
	case CategoryDiscovery:
		return "DISCOVERY"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// CommandEvent captures one command exchange at the session layer.
type CommandEvent struct {
	// Name is the module.action pair of the command.
	Name string `cbor:"1,keyasint"`

	// Wire is the encoded command text (terminator stripped).
	Wire string `cbor:"2,keyasint,omitempty"`

	// Payload is the response text for queries.
	Payload string `cbor:"3,keyasint,omitempty"`

	// BlockSize is the binary block byte count for memory transfers.
	BlockSize int `cbor:"4,keyasint,omitempty"`

	// Elapsed is the duration from write to final response frame.
	// Stored as nanoseconds.
	Elapsed *time.Duration `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures session and acquisition lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntitySession indicates a session state change.
	StateEntitySession StateEntity = 0
	// StateEntityAcquisition indicates an acquisition run state change.
	StateEntityAcquisition StateEntity = 1
	// StateEntityDevice indicates a registry device state change.
	StateEntityDevice StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySession:
		return "SESSION"
	case StateEntityAcquisition:
		return "ACQUISITION"
	case StateEntityDevice:
		return "DEVICE"
	default:
		return "UNKNOWN"
	}
}

// DiscoveryEvent captures one endpoint found during discovery.
type DiscoveryEvent struct {
	// Class is the device class name.
	Class string `cbor:"1,keyasint"`

	// Transport names the endpoint kind.
	Transport string `cbor:"2,keyasint"`

	// Endpoint is the endpoint address.
	Endpoint string `cbor:"3,keyasint"`

	// Model is the probed model (if identification succeeded).
	Model string `cbor:"4,keyasint,omitempty"`

	// Serial is the probed serial number.
	Serial string `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the instrument error code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
