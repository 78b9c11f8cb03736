package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/session"
	"github.com/benchwire-project/benchwire-go/pkg/transport"
)

func TestDiscoverInternalFirst(t *testing.T) {
	r, _ := newScopeRegistry(t)

	found, err := r.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("descriptors: got %d, want 1", len(found))
	}
	want := Descriptor{Class: ClassScope, Transport: transport.KindInternal, Endpoint: InternalName}
	if found[0] != want {
		t.Errorf("internal descriptor: got %+v, want %+v", found[0], want)
	}
}

func TestDiscoverClassifiesPorts(t *testing.T) {
	identities := map[string]map[int]string{
		"/dev/ttyACM0": {115200: "GW-INSTEK,PSW-2505,TW001,1.0"},
		"/dev/ttyACM1": {9600: "GW-INSTEK,GDM-8261A,TW002,1.0"},
		"/dev/ttyACM2": {},
	}
	var probed []string
	r := New(Options{
		ListPorts: func() ([]SerialPort, error) {
			return []SerialPort{
				{Path: "/dev/ttyACM0", USB: true},
				{Path: "/dev/ttyS0"},
				{Path: "/dev/ttyACM1", USB: true},
				{Path: "/dev/ttyACM2", USB: true},
			}, nil
		},
		Probe: func(ctx context.Context, path string, baud int) (scpi.Identity, error) {
			probed = append(probed, fmt.Sprintf("%s@%d", path, baud))
			payload, ok := identities[path][baud]
			if !ok {
				return scpi.Identity{}, session.ErrTimeout
			}
			return scpi.ParseIdentity(payload)
		},
		Browse: noServices,
	})

	found, err := r.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	want := []Descriptor{
		{Class: ClassPSW, Transport: transport.KindSerial, Endpoint: "/dev/ttyACM0", Model: "PSW-2505", Serial: "TW001", Baud: 115200},
		{Class: ClassGDM, Transport: transport.KindSerial, Endpoint: "/dev/ttyACM1", Model: "GDM-8261A", Serial: "TW002", Baud: 9600},
	}
	if len(found) != len(want) {
		t.Fatalf("descriptors: got %d (%v), want %d", len(found), found, len(want))
	}
	for i := range want {
		if found[i] != want[i] {
			t.Errorf("descriptor %d: got %+v, want %+v", i, found[i], want[i])
		}
	}

	// The baud ladder stops at the first answer; dead ports walk the
	// whole ladder, non-USB ports are never probed.
	wantProbes := []string{
		"/dev/ttyACM0@115200",
		"/dev/ttyACM1@115200",
		"/dev/ttyACM1@9600",
		"/dev/ttyACM2@115200",
		"/dev/ttyACM2@9600",
	}
	if len(probed) != len(wantProbes) {
		t.Fatalf("probes: got %v, want %v", probed, wantProbes)
	}
	for i := range wantProbes {
		if probed[i] != wantProbes[i] {
			t.Errorf("probe %d: got %q, want %q", i, probed[i], wantProbes[i])
		}
	}
}

func TestDiscoverSocketServices(t *testing.T) {
	r := New(Options{
		ListPorts: noPorts,
		Probe:     failProbe,
		Browse: func(ctx context.Context, window time.Duration) ([]SocketService, error) {
			return []SocketService{
				{Instance: "BW-2204P", Host: "192.0.2.7", Port: 5025, Model: "BW-2204P", Serial: "BW000123"},
				{Instance: "bench", Host: "192.0.2.9", Port: 5025},
			}, nil
		},
	})

	found, err := r.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	want := []Descriptor{
		{Class: ClassScope, Transport: transport.KindSocket, Endpoint: "192.0.2.7:5025", Model: "BW-2204P", Serial: "BW000123"},
		{Class: ClassGeneric, Transport: transport.KindSocket, Endpoint: "192.0.2.9:5025"},
	}
	if len(found) != len(want) {
		t.Fatalf("descriptors: got %d (%v), want %d", len(found), found, len(want))
	}
	for i := range want {
		if found[i] != want[i] {
			t.Errorf("descriptor %d: got %+v, want %+v", i, found[i], want[i])
		}
	}
}

func TestDiscoverListerFault(t *testing.T) {
	r := New(Options{
		ListPorts: func() ([]SerialPort, error) { return nil, errors.New("enumerator down") },
		Probe:     failProbe,
		Browse:    noServices,
	})

	if _, err := r.Discover(context.Background()); err == nil {
		t.Fatal("Discover with failing lister succeeded")
	}
}

func TestDiscoverBrowseFault(t *testing.T) {
	r := New(Options{
		ListPorts: noPorts,
		Probe:     failProbe,
		Browse: func(ctx context.Context, window time.Duration) ([]SocketService, error) {
			return nil, errors.New("multicast socket")
		},
	})

	if _, err := r.Discover(context.Background()); err == nil {
		t.Fatal("Discover with failing browser succeeded")
	}
}

func TestDescriptorString(t *testing.T) {
	cases := []struct {
		desc Descriptor
		want string
	}{
		{
			Descriptor{Class: ClassScope, Transport: transport.KindInternal, Endpoint: InternalName},
			"SCOPE internal internal",
		},
		{
			Descriptor{Class: ClassPSW, Transport: transport.KindSerial, Endpoint: "/dev/ttyACM0", Model: "PSW-2505", Serial: "TW001"},
			"PSW serial /dev/ttyACM0 (PSW-2505 TW001)",
		},
		{
			Descriptor{Class: ClassGeneric, Transport: transport.KindSocket, Endpoint: "192.0.2.9:5025"},
			"GENERIC socket 192.0.2.9:5025",
		},
	}
	for _, tc := range cases {
		if got := tc.desc.String(); got != tc.want {
			t.Errorf("String: got %q, want %q", got, tc.want)
		}
	}
}
