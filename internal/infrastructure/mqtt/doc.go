// Package mqtt publishes Brewlink's telemetry surface to an MQTT
// broker via eclipse/paho.
//
// Topic layout (see topics.go for the builders):
//
//	brewlink/machine/telemetry/{boiler}   boiler samples, QoS 0
//	brewlink/machine/power                power state, QoS 1 retained
//	brewlink/system/status                online/offline + LWT
//
// The client auto-reconnects with exponential backoff, restores
// subscriptions on reconnect, and registers a Last Will so a crashed
// controller shows as offline. Subscribing is supported for companion
// tooling and the package's own integration tests; the controller
// itself only publishes.
//
// Integration tests require a broker at 127.0.0.1:1883 and skip
// otherwise.
package mqtt
