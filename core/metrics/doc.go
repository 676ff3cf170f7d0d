package metrics

// Package metrics defines the sinks receiving dispatch outcomes and schedule
// events. Sinks like PromSink and InfluxSink live in infra/metrics and can be
// combined with NewMultiSink. The factory helpers return a MultiSink
// automatically when multiple sinks are configured.
