// Package interactive provides the interactive command shell for
// benchwire-ctl.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/benchwire-project/benchwire-go/pkg/instrument"
	"github.com/benchwire-project/benchwire-go/pkg/profile"
	"github.com/benchwire-project/benchwire-go/pkg/registry"
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/session"
)

// Timeouts for shell-issued operations. Discovery covers the mDNS
// browse window plus the serial probe ladder; the acquisition wait has
// its own user-supplied bound.
const (
	commandTimeout     = 30 * time.Second
	discoverTimeout    = 15 * time.Second
	defaultWaitTimeout = 10 * time.Second
)

// Controller handles interactive mode for benchwire-ctl.
type Controller struct {
	reg *registry.Registry
	tee *EventTee
	rl  *readline.Instance

	// Results of the last discover command, indexed by open <n>.
	found []registry.Descriptor

	// Device selected by the last open command.
	sess  *session.Session
	desc  registry.Descriptor
	scope *instrument.Scope
}

// New creates a new interactive controller.
func New(reg *registry.Registry, tee *EventTee) (*Controller, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "benchwire> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Controller{reg: reg, tee: tee, rl: rl}, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Controller) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Controller) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run starts the interactive command loop.
func (c *Controller) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "discover", "d":
			c.cmdDiscover()

		case "open", "o":
			c.cmdOpen(args)

		case "close":
			c.cmdClose()

		case "list", "l":
			c.cmdList()

		case "status":
			c.cmdStatus()

		case "idn":
			c.cmdIdent()

		case "raw":
			c.cmdRaw(args)

		case "channel", "ch":
			c.cmdChannel(args)

		case "awg":
			c.cmdAWG(args)

		case "dmm":
			c.cmdDMM(args)

		case "acquire", "acq":
			c.cmdAcquire(args)

		case "wait":
			c.cmdWait(args)

		case "measure", "m":
			c.cmdMeasure(args)

		case "log":
			c.cmdLog(args)

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Controller) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
BenchWire Commands:
  Registry:
    discover             - Scan internal, USB and LAN endpoints
    open <n>             - Open device n from the last discover
    close                - Close the selected device
    list                 - List open endpoints
    status               - Show selected device and session state

  Device:
    idn                  - Query device identity
    raw <scpi>           - Send raw command text (? suffix queries)

  Scope:
    channel on|off <n>          - Toggle an input channel
    awg on <n> <wave> <hz> [vpp] - Configure and enable an AWG output
    awg off <n>                 - Disable an AWG output
    dmm measure <func>          - One multimeter measurement (dcv, acv, ohm, ...)
    dmm value                   - Read the current multimeter value
    acquire single|run|stop|state - Control acquisition
    wait [seconds]              - Wait for a single acquisition to complete
    measure <name> [ch]         - Read an automatic measurement (vpp, frequency, ...)

  Logging:
    log <file>           - Tee session events to a .bwlog file
    log off              - Stop logging
    log                  - Show the current log destination

  General:
    help                 - Show this help
    quit                 - Exit`)
}

// cmdDiscover runs one discovery pass and lists what it found.
func (c *Controller) cmdDiscover() {
	ctx, cancel := context.WithTimeout(context.Background(), discoverTimeout)
	defer cancel()

	found, err := c.reg.Discover(ctx)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Discovery failed: %v\n", err)
		return
	}
	c.found = found

	if len(found) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No devices found")
		return
	}
	for i, d := range found {
		fmt.Fprintf(c.rl.Stdout(), "[%d] %s\n", i, d)
	}
}

// cmdOpen opens a discovered device and selects it. Oscilloscope
// endpoints additionally get the instrument modules wired up.
func (c *Controller) cmdOpen(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: open <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 || n >= len(c.found) {
		fmt.Fprintf(c.rl.Stdout(), "No discovered device %q (run discover first)\n", args[0])
		return
	}
	d := c.found[n]

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	sess, err := c.reg.Open(ctx, d)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Open failed: %v\n", err)
		return
	}
	sess.Extend(scpi.RawEntries())
	c.sess = sess
	c.desc = d
	c.scope = nil

	ident, err := c.identify(ctx)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Opened %s (identify failed: %v)\n", d, err)
	} else {
		fmt.Fprintf(c.rl.Stdout(), "Opened %s\n  IDN: %s %s %s %s\n",
			d, ident.Manufacturer, ident.Model, ident.Serial, ident.Firmware)
	}

	if d.Class == registry.ClassScope || d.Class == registry.ClassGeneric {
		model := d.Model
		if ident.Model != "" {
			model = ident.Model
		}
		prof, err := profile.ForModel(model)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "No instrument profile for %q: %v\n", model, err)
			return
		}
		c.scope = instrument.NewScope(sess, prof)
	}
}

// cmdClose closes the selected device.
func (c *Controller) cmdClose() {
	if c.sess == nil {
		fmt.Fprintln(c.rl.Stdout(), "No open device")
		return
	}
	if err := c.reg.Close(c.desc.Endpoint); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Close failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Closed %s\n", c.desc)
	c.sess = nil
	c.scope = nil
}

// cmdList lists open endpoints, marking the selected one.
func (c *Controller) cmdList() {
	open := c.reg.OpenEndpoints()
	if len(open) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "No open devices")
		return
	}
	for _, ep := range open {
		marker := " "
		if c.sess != nil && ep == c.desc.Endpoint {
			marker = "*"
		}
		fmt.Fprintf(c.rl.Stdout(), "%s %s\n", marker, ep)
	}
}

// cmdStatus shows the selected device and its session state.
func (c *Controller) cmdStatus() {
	w := c.rl.Stdout()
	if c.sess == nil {
		fmt.Fprintln(w, "No open device")
		return
	}
	fmt.Fprintf(w, "Device:  %s\n", c.desc)
	fmt.Fprintf(w, "Session: %s (%s)\n", shortenID(c.sess.ID()), c.sess.State())
	if c.scope != nil {
		fmt.Fprintf(w, "Acquire: %s\n", c.scope.Sync.State())
	}
	if path := c.tee.Path(); path != "" {
		fmt.Fprintf(w, "Log:     %s\n", path)
	}
}

// cmdIdent queries and prints the device identity.
func (c *Controller) cmdIdent() {
	if c.sess == nil {
		fmt.Fprintln(c.rl.Stdout(), "No open device")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	ident, err := c.identify(ctx)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "%s %s %s %s\n",
		ident.Manufacturer, ident.Model, ident.Serial, ident.Firmware)
}

// cmdRaw sends hand-typed wire text through the session.
func (c *Controller) cmdRaw(args []string) {
	if c.sess == nil {
		fmt.Fprintln(c.rl.Stdout(), "No open device")
		return
	}
	if len(args) == 0 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: raw <scpi text>")
		return
	}
	cmd := scpi.Raw(strings.Join(args, " "))

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	resp, err := c.sess.Send(ctx, cmd)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	if cmd.Query {
		fmt.Fprintln(c.rl.Stdout(), resp.Payload)
	} else {
		fmt.Fprintln(c.rl.Stdout(), "OK")
	}
}

// cmdLog attaches, detaches or reports the event log destination.
func (c *Controller) cmdLog(args []string) {
	w := c.rl.Stdout()
	if len(args) == 0 {
		if path := c.tee.Path(); path != "" {
			fmt.Fprintf(w, "Logging to %s\n", path)
		} else {
			fmt.Fprintln(w, "Not logging (log <file> to start)")
		}
		return
	}
	if strings.ToLower(args[0]) == "off" {
		if err := c.tee.Detach(); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(w, "Logging stopped")
		return
	}
	if err := c.tee.Attach(args[0]); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Logging to %s\n", args[0])
}

// identify queries *IDN? through the class vocabulary of the selected
// session.
func (c *Controller) identify(ctx context.Context) (scpi.Identity, error) {
	resp, err := c.sess.Send(ctx, scpi.Query(identifyModule(c.desc.Class), "identify"))
	if err != nil {
		return scpi.Identity{}, err
	}
	return scpi.ParseIdentity(resp.Payload)
}

// identifyModule maps a device class to the module name its wire
// vocabulary files *IDN? under.
func identifyModule(class registry.Class) string {
	switch class {
	case registry.ClassPSW, registry.ClassPFR, registry.ClassPPX:
		return "supply"
	case registry.ClassPEL:
		return "load"
	case registry.ClassGDM:
		return "meter"
	default:
		return scpi.ModSystem
	}
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
