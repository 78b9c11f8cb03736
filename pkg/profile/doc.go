// Package profile describes instrument families: which modules a family
// carries, the legal parameter ranges its firmware accepts, and the
// timing constants sessions must respect.
//
// Built-in family profiles are embedded as YAML and loaded by family
// name with Load, or matched from a model designation with ForModel.
// Deployments can override limits and timing with LoadFile without
// recompiling. External bench device classes (power supplies, loads,
// multimeters) use the small fixed profiles in BenchByClass.
package profile
