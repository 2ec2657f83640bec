package mqtt

// SensorEventsTopic matches the per-device event topics the ingress consumes.
const SensorEventsTopic = "sensors/+/events"

// CommandTopic is the outbound topic for one actuator device.
func CommandTopic(deviceID string) string {
	return "actuators/" + deviceID + "/commands"
}
