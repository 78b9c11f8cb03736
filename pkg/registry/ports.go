package registry

import (
	"context"
	"time"

	"go.bug.st/serial/enumerator"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/session"
	"github.com/benchwire-project/benchwire-go/pkg/transport"
)

// probeTimeout bounds one identification attempt so a dead port does
// not stall the whole pass.
const probeTimeout = 2 * time.Second

// listSerialPorts is the production port lister.
func listSerialPorts() ([]SerialPort, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	ports := make([]SerialPort, 0, len(details))
	for _, d := range details {
		ports = append(ports, SerialPort{
			Path:   d.Name,
			USB:    d.IsUSB,
			VID:    d.VID,
			PID:    d.PID,
			Serial: d.SerialNumber,
		})
	}
	return ports, nil
}

// probeSerial is the production prober: one *IDN? exchange over a
// short-lived session at the given line speed.
func probeSerial(ctx context.Context, path string, baud int) (scpi.Identity, error) {
	sess := session.New(transport.NewSerialEndpoint(path, baud), session.Options{
		CommandTimeout: probeTimeout,
		ConnectTimeout: probeTimeout,
	})
	if err := sess.Connect(ctx); err != nil {
		return scpi.Identity{}, err
	}
	defer sess.Close()

	resp, err := sess.Send(ctx, scpi.Query(scpi.ModSystem, "identify"))
	if err != nil {
		return scpi.Identity{}, err
	}
	return scpi.ParseIdentity(resp.Payload)
}
