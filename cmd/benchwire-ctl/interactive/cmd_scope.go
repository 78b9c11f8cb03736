package interactive

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/benchwire-project/benchwire-go/pkg/instrument"
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// scopeReady returns the selected scope, or nil after printing why
// the command cannot run.
func (c *Controller) scopeReady() *instrument.Scope {
	if c.scope == nil {
		fmt.Fprintln(c.rl.Stdout(), "No open scope (open an oscilloscope first)")
		return nil
	}
	return c.scope
}

// cmdChannel handles: channel on|off <n>
func (c *Controller) cmdChannel(args []string) {
	s := c.scopeReady()
	if s == nil {
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: channel on|off <n>")
		return
	}
	ch, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Invalid channel: %s\n", args[1])
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	verb := strings.ToLower(args[0])
	switch verb {
	case "on":
		err = s.Channel.SetOn(ctx, ch)
	case "off":
		err = s.Channel.SetOff(ctx, ch)
	default:
		fmt.Fprintln(c.rl.Stdout(), "Usage: channel on|off <n>")
		return
	}
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Channel %d %s\n", ch, verb)
}

// cmdAWG handles: awg on <n> <waveform> <freq-hz> [vpp]  |  awg off <n>
func (c *Controller) cmdAWG(args []string) {
	s := c.scopeReady()
	if s == nil {
		return
	}
	w := c.rl.Stdout()
	usage := "Usage: awg on <n> <waveform> <freq-hz> [vpp] | awg off <n>"
	if len(args) < 2 {
		fmt.Fprintln(w, usage)
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(w, "Invalid AWG output: %s\n", args[1])
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch strings.ToLower(args[0]) {
	case "off":
		if err := s.AWG.SetOff(ctx, n); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(w, "AWG %d off\n", n)

	case "on":
		if len(args) < 4 {
			fmt.Fprintln(w, usage)
			return
		}
		wave, err := scpi.ParseWaveform(args[2])
		if err != nil {
			fmt.Fprintf(w, "Unknown waveform %q (sine, square, ramp, ...)\n", args[2])
			return
		}
		freq, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			fmt.Fprintf(w, "Invalid frequency: %s\n", args[3])
			return
		}
		cfg := instrument.AWGConfig{Waveform: wave, Frequency: freq}
		if len(args) > 4 {
			vpp, err := strconv.ParseFloat(args[4], 64)
			if err != nil {
				fmt.Fprintf(w, "Invalid amplitude: %s\n", args[4])
				return
			}
			cfg.Amplitude = vpp
		}
		if err := s.AWG.SetOn(ctx, n, cfg); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(w, "AWG %d: %s at %s Hz\n", n, wave, args[3])

	default:
		fmt.Fprintln(w, usage)
	}
}

// cmdDMM handles: dmm on|off|value|measure <function>
func (c *Controller) cmdDMM(args []string) {
	s := c.scopeReady()
	if s == nil {
		return
	}
	w := c.rl.Stdout()
	if len(args) == 0 {
		fmt.Fprintln(w, "Usage: dmm on|off|value|measure <function>")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch strings.ToLower(args[0]) {
	case "on":
		if err := s.DMM.Enable(ctx); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(w, "DMM on")

	case "off":
		if err := s.DMM.Disable(ctx); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(w, "DMM off")

	case "value":
		v, err := s.DMM.Value(ctx)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(w, "%g\n", v)

	case "measure":
		if len(args) < 2 {
			fmt.Fprintln(w, "Usage: dmm measure <function>  (dcv, acv, dca, ohm, ...)")
			return
		}
		f, err := scpi.ParseDMMFunction(args[1])
		if err != nil {
			fmt.Fprintf(w, "Unknown DMM function %q (dcv, acv, dca, ohm, ...)\n", args[1])
			return
		}
		v, err := s.DMM.Measure(ctx, f)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(w, "%g\n", v)

	default:
		fmt.Fprintln(w, "Usage: dmm on|off|value|measure <function>")
	}
}

// cmdAcquire handles: acquire single|run|stop|state
func (c *Controller) cmdAcquire(args []string) {
	s := c.scopeReady()
	if s == nil {
		return
	}
	w := c.rl.Stdout()
	if len(args) == 0 {
		fmt.Fprintln(w, "Usage: acquire single|run|stop|state")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch strings.ToLower(args[0]) {
	case "single":
		if err := s.Sync.Start(ctx); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(w, "Single acquisition armed (wait to block until complete)")

	case "run":
		if err := s.Run(ctx); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(w, "Running")

	case "stop":
		if err := s.Stop(ctx); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
		fmt.Fprintln(w, "Stopped")

	case "state":
		fmt.Fprintf(w, "%s\n", s.Sync.State())

	default:
		fmt.Fprintln(w, "Usage: acquire single|run|stop|state")
	}
}

// cmdWait handles: wait [seconds]
func (c *Controller) cmdWait(args []string) {
	s := c.scopeReady()
	if s == nil {
		return
	}
	w := c.rl.Stdout()

	timeout := defaultWaitTimeout
	if len(args) > 0 {
		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil || secs <= 0 {
			fmt.Fprintf(w, "Invalid timeout: %s\n", args[0])
			return
		}
		timeout = time.Duration(secs * float64(time.Second))
	}

	// The poll loop carries the real bound; the context only catches a
	// wedged transport.
	ctx, cancel := context.WithTimeout(context.Background(), timeout+commandTimeout)
	defer cancel()

	if err := s.Sync.WaitForCompletion(ctx, timeout); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(w, "Acquisition complete")
}

// cmdMeasure handles: measure <name> [ch]
func (c *Controller) cmdMeasure(args []string) {
	s := c.scopeReady()
	if s == nil {
		return
	}
	w := c.rl.Stdout()
	if len(args) == 0 {
		fmt.Fprintf(w, "Usage: measure <name> [ch]\nNames: %s\n",
			strings.Join(instrument.Measurements(), ", "))
		return
	}

	ch := 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(w, "Invalid channel: %s\n", args[1])
			return
		}
		ch = n
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	v, err := s.Measure.Value(ctx, ch, args[0])
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%g\n", v)
}
