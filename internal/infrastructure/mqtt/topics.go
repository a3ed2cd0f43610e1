package mqtt

import "fmt"

// Topic prefixes for the Brewlink MQTT surface.
//
// All topics use the flat scheme: brewlink/{category}/{subject}
const (
	// TopicPrefix is the base for all Brewlink topics.
	TopicPrefix = "brewlink"

	// TopicPrefixMachine is the base for machine state and telemetry.
	TopicPrefixMachine = "brewlink/machine"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "brewlink/system"
)

// Topics provides builders for Brewlink MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.BoilerTelemetry("brew_boiler")
//	// Returns: "brewlink/machine/telemetry/brew_boiler"
type Topics struct{}

// =============================================================================
// Machine Topics
// =============================================================================

// BoilerTelemetry returns the topic for boiler temperature samples.
//
// Example: brewlink/machine/telemetry/brew_boiler
func (Topics) BoilerTelemetry(boiler string) string {
	return fmt.Sprintf("%s/telemetry/%s", TopicPrefixMachine, boiler)
}

// PowerState returns the topic for estimated power state transitions.
//
// Example: brewlink/machine/power
func (Topics) PowerState() string {
	return fmt.Sprintf("%s/power", TopicPrefixMachine)
}

// Connection returns the topic for BLE session state changes.
//
// Example: brewlink/machine/connection
func (Topics) Connection() string {
	return fmt.Sprintf("%s/connection", TopicPrefixMachine)
}

// ScheduleChanged returns the topic for schedule update events.
//
// Example: brewlink/machine/schedule
func (Topics) ScheduleChanged() string {
	return fmt.Sprintf("%s/schedule", TopicPrefixMachine)
}

// PowerCommandResult returns the topic for completed power transitions.
//
// Example: brewlink/machine/power/result
func (Topics) PowerCommandResult() string {
	return fmt.Sprintf("%s/power/result", TopicPrefixMachine)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the service status topic, also used as the LWT
// topic so subscribers see "offline" when the controller drops.
//
// Example: brewlink/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllTelemetry returns a pattern matching all boiler telemetry.
//
// Pattern: brewlink/machine/telemetry/+
func (Topics) AllTelemetry() string {
	return fmt.Sprintf("%s/telemetry/+", TopicPrefixMachine)
}

// AllMachine returns a pattern matching all machine topics.
//
// Pattern: brewlink/machine/#
func (Topics) AllMachine() string {
	return fmt.Sprintf("%s/#", TopicPrefixMachine)
}

// AllTopics returns a pattern matching all Brewlink topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: brewlink/#
func (Topics) AllTopics() string {
	return "brewlink/#"
}
