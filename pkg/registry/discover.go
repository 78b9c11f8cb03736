package registry

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/benchwire-project/benchwire-go/pkg/log"
	"github.com/benchwire-project/benchwire-go/pkg/transport"
)

// SerialPort is one serial device candidate reported by the port
// lister.
type SerialPort struct {
	// Path is the device path, /dev/ttyACMx or similar.
	Path string

	// USB reports whether the port sits on a USB bridge. Only USB
	// ports are probed; motherboard UARTs answer nothing.
	USB bool

	// VID, PID and Serial come from the USB descriptor when present.
	VID    string
	PID    string
	Serial string
}

// SocketService is one SCPI service advertised on the LAN.
type SocketService struct {
	// Instance is the advertised service instance name.
	Instance string

	// Host and Port form the connect address.
	Host string
	Port int

	// Model and Serial are taken from the service's TXT records when
	// advertised.
	Model  string
	Serial string
}

// probeBauds is the line speed ladder for identifying a USB device.
// Supplies and loads answer at the first step; bench multimeters ship
// at the second.
var probeBauds = [...]int{115200, 9600}

// Discover runs one enumeration pass and returns everything found:
// the internal endpoint first, then identified USB ports, then LAN
// services. Each call re-enumerates from scratch; finish or abandon
// one pass before starting the next. A port that fails identification
// is logged and skipped, while a failing port lister or LAN browse
// fails the whole pass.
func (r *Registry) Discover(ctx context.Context) ([]Descriptor, error) {
	var found []Descriptor

	if r.opts.Internal != nil {
		d := Descriptor{Class: ClassScope, Transport: transport.KindInternal, Endpoint: InternalName}
		found = append(found, d)
		r.logFound(d)
	}

	ports, err := r.opts.ListPorts()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	for _, port := range ports {
		if !port.USB {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := r.probePort(ctx, port.Path)
		if err != nil {
			r.logProbeError(port.Path, err)
			continue
		}
		found = append(found, d)
		r.logFound(d)
	}

	services, err := r.opts.Browse(ctx, r.opts.BrowseWindow)
	if err != nil {
		return nil, fmt.Errorf("browse lan services: %w", err)
	}
	for _, svc := range services {
		d := Descriptor{
			Class:     classifyModel(svc.Model),
			Transport: transport.KindSocket,
			Endpoint:  net.JoinHostPort(svc.Host, strconv.Itoa(svc.Port)),
			Model:     svc.Model,
			Serial:    svc.Serial,
		}
		found = append(found, d)
		r.logFound(d)
	}

	return found, nil
}

// probePort identifies the device behind one serial port, walking the
// baud ladder until the device answers.
func (r *Registry) probePort(ctx context.Context, path string) (Descriptor, error) {
	var lastErr error
	for _, baud := range probeBauds {
		ident, err := r.opts.Probe(ctx, path, baud)
		if err != nil {
			lastErr = err
			continue
		}
		return Descriptor{
			Class:     classifyModel(ident.Model),
			Transport: transport.KindSerial,
			Endpoint:  path,
			Model:     ident.Model,
			Serial:    ident.Serial,
			Baud:      baud,
		}, nil
	}
	return Descriptor{}, lastErr
}

// logFound emits a discovery event for one descriptor.
func (r *Registry) logFound(d Descriptor) {
	r.logger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerRegistry,
		Category:  log.CategoryDiscovery,
		Transport: d.Transport.String(),
		Endpoint:  d.Endpoint,
		Model:     d.Model,
		Serial:    d.Serial,
		Discovery: &log.DiscoveryEvent{
			Class:     string(d.Class),
			Transport: d.Transport.String(),
			Endpoint:  d.Endpoint,
			Model:     d.Model,
			Serial:    d.Serial,
		},
	})
}

// logProbeError records a port that did not identify.
func (r *Registry) logProbeError(path string, err error) {
	r.logger.Log(log.Event{
		Timestamp: time.Now(),
		Direction: log.DirectionIn,
		Layer:     log.LayerRegistry,
		Category:  log.CategoryError,
		Transport: transport.KindSerial.String(),
		Endpoint:  path,
		Error: &log.ErrorEventData{
			Layer:   log.LayerRegistry,
			Message: err.Error(),
			Context: "identify probe",
		},
	})
}
