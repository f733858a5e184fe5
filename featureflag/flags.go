package featureflag

type Flag string

const (
	// FlagDisableVertexSweep reverts collision testing to the edge-at-
	// candidate-pose trace only, dropping the additional per-vertex sweep
	// (see SPEC_FULL.md's Open Questions decision on tunneling).
	FlagDisableVertexSweep Flag = "DISABLE_VERTEX_SWEEP"

	// FlagDisableTelemetryBroadcast stops the tick loop from publishing
	// snapshots, useful for running a world headless under load.
	FlagDisableTelemetryBroadcast Flag = "DISABLE_TELEMETRY_BROADCAST"

	// FlagDisableTrailRecording skips trail ring-buffer bookkeeping on
	// every pose update.
	FlagDisableTrailRecording Flag = "DISABLE_TRAIL_RECORDING"
)
