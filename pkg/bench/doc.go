// Package bench drives external bench instruments attached over
// USB-CDC serial or LAN: programmable power supplies (PSW, PFR, PPX
// families), DC electronic loads (PEL) and bench multimeters (GDM).
//
// Each driver owns one session.Session the registry opened for it and
// speaks that device class's command vocabulary. The drivers follow
// the same contract as the oscilloscope modules: parameters are
// validated before anything touches the wire, one operation issues
// one command, and no operation retries.
//
// Supplies and loads report their programmable voltage and current
// range over the wire, so the limit table is read once at open and
// setpoints validate against it:
//
//	psu, err := bench.NewPowerSupply(ctx, sess)
//	if err != nil { ... }
//	psu.SetOutput(ctx, 1, 5.0, 0.5)
//	psu.Enable(ctx, 1)
package bench
