// Package instrument exposes the oscilloscope's subsystems as typed
// modules over a command session.
//
// A Scope wraps one session.Session plus the profile.Profile of the
// instrument family it talks to, and publishes one module per
// subsystem:
//
//	scope := instrument.NewScope(sess, prof)
//	scope.Channel.SetScale(ctx, 1, 0.5)
//	scope.Trigger.Setup(ctx, scpi.TriggerNormal, scpi.TriggerSourceCH1, 0.1)
//	scope.Sync.Start(ctx)
//	scope.Sync.WaitForCompletion(ctx, 10*time.Second)
//	rec, err := scope.Waveform.Acquire(ctx, 1)
//
// Every module operation validates its parameters against the profile
// before anything touches the wire; invalid input fails with
// scpi.ErrInvalidParameter and writes nothing. One operation issues
// exactly one command; the few composites that issue a fixed sequence
// (Trigger.Setup, AWG.SetOn, DMM.Measure, Waveform.Acquire,
// Spectrum.Trace) are built from the single-command operations and
// document the sequence. No operation retries.
//
// Measurement reads (DMM.Measure, Measure values, waveform and
// spectrum trace transfers) consult the acquisition synchronizer and
// fail with ErrNotReady while a single-shot acquisition is sampling.
package instrument
