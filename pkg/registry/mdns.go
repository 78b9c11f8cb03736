package registry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/enbility/zeroconf/v2"
)

// SCPI raw-socket service conventions on the LAN.
const (
	mdnsService = "_scpi-raw._tcp"
	mdnsDomain  = "local"
)

// browseMDNS is the production LAN browser. It collects _scpi-raw._tcp
// advertisements for one window and converts them to socket services.
func browseMDNS(ctx context.Context, window time.Duration) ([]SocketService, error) {
	ctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var services []SocketService
	done := make(chan struct{})
	go func() {
		defer close(done)
		var in, rm <-chan *zeroconf.ServiceEntry = entries, removed
		for in != nil || rm != nil {
			select {
			case e, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				if svc, ok := serviceFromEntry(e); ok {
					services = append(services, svc)
				}
			case _, ok := <-rm:
				if !ok {
					rm = nil
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Browse blocks until the window expires, feeding the collector.
	err := zeroconf.Browse(ctx, mdnsService, mdnsDomain, entries, removed)
	cancel()
	<-done

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	return services, nil
}

// serviceFromEntry converts one mDNS entry. Entries without a usable
// address are dropped.
func serviceFromEntry(e *zeroconf.ServiceEntry) (SocketService, bool) {
	var host string
	switch {
	case len(e.AddrIPv4) > 0:
		host = e.AddrIPv4[0].String()
	case len(e.AddrIPv6) > 0:
		host = e.AddrIPv6[0].String()
	default:
		host = strings.TrimSuffix(e.HostName, ".")
	}
	if host == "" || e.Port == 0 {
		return SocketService{}, false
	}

	svc := SocketService{Instance: e.Instance, Host: host, Port: e.Port}
	for _, txt := range e.Text {
		key, value, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "model":
			svc.Model = value
		case "serial":
			svc.Serial = value
		}
	}
	return svc, true
}
