// Package infra contains technical adapters such as the Home Assistant and
// MQTT dispatch ports, the Kafka feed and metrics exporters. These packages
// should depend only on the interfaces defined in the core packages.
package infra
