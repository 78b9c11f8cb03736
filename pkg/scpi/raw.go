package scpi

import "strings"

// ModRaw is the passthrough module for hand-typed wire text. It is
// not part of any device vocabulary; extend a session with RawEntries
// before sending Raw commands.
const ModRaw = "raw"

// Raw wraps hand-typed wire text in a command. Text ending in "?" is
// sent as a query expecting one response frame, anything else as a
// set. Diagnostic tools use this to reach firmware commands the
// vocabulary does not know.
func Raw(text string) Command {
	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, "?") {
		return Query(ModRaw, "query", text)
	}
	return Set(ModRaw, "set", text)
}

// RawEntries returns the passthrough templates that encode Raw
// commands verbatim.
func RawEntries() map[Key]Entry {
	return map[Key]Entry{
		{Module: ModRaw, Action: "set"}:   {Set: "%v", SetArgs: 1},
		{Module: ModRaw, Action: "query"}: {Query: "%v", QueryArgs: 1},
	}
}
