package model

// ControlSignal is one named setpoint sequence produced by the optimizer.
// Name embeds the device id plus the optimizer's node and scenario suffixes.
type ControlSignal struct {
	Name   string    `json:"name"`
	Signal []float64 `json:"signal"`
}

// ControlSignalBatch holds every signal of one optimization outcome.
type ControlSignalBatch struct {
	// APIKey is the hub token forwarded to the dispatch port. Empty means
	// the port falls back to its configured token.
	APIKey  string          `json:"api_key,omitempty"`
	Signals []ControlSignal `json:"control_signals"`
}
