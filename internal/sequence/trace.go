package sequence

import (
	logx "schedd/pkg/logx"
)

// trace is the engine's observability hook: which node is being recomputed,
// forked or relinked, and why. Disabled by default; the zero cost of a
// disabled zerolog event keeps the hot paths clean.
var trace = logx.Nop()

// SetTrace installs the engine trace logger. Install once during startup,
// before any chain work; the hook is not synchronized.
func SetTrace(l logx.Logger) {
	if l.IsZero() {
		l = logx.Nop()
	}
	trace = l
}
