package scheduler

// Mode is the process-wide scheduling backend, chosen once at startup.
type Mode string

const (
	// ModeFallback runs the in-process poller with inline dispatch.
	ModeFallback Mode = "fallback"
	// ModeDistributed produces into the Valkey-backed queue consumed by
	// worker processes.
	ModeDistributed Mode = "distributed"
)

// SelectMode probes the queue transport and picks the backend for the life of
// the process. A transport outage mid-run degrades to failed dispatch
// attempts; there is deliberately no silent mode switch after startup.
func SelectMode(probe func() bool) Mode {
	if probe != nil && probe() {
		return ModeDistributed
	}
	return ModeFallback
}
