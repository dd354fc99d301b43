package domain

// Capability names a driver capability.
type Capability string

// Capabilities.
const (
	CapabilityRead          Capability = "read"
	CapabilityQueryByObject Capability = "query-by-object"
	CapabilityPublish       Capability = "publish"
	CapabilityDelete        Capability = "delete"
	CapabilityEmpty         Capability = "empty"
)

// DriverStatus summarizes a registered driver.
type DriverStatus struct {
	ID          string                      `json:"id"`
	Available   bool                        `json:"available"`
	Message     string                      `json:"message,omitempty"`
	Routes      map[EntityType][]Capability `json:"routes"`
	HasMetrics  bool                        `json:"hasMetrics"`
	HasCommands bool                        `json:"hasCommands"`
}
