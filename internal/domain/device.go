package domain

// DeviceStatusConnected is the only adb device status that denotes a usable
// device. Other values ("unauthorized", "offline", "bootloader", ...) must be
// filtered out of any connected-devices view.
const DeviceStatusConnected = "device"

// Device is one entry from `adb devices -l`.
type Device struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Name   string `json:"name,omitempty"`
}

// IsConnected returns true if the device is usable for streaming.
func (d Device) IsConnected() bool {
	return d.Status == DeviceStatusConnected
}

// ConnectedDevices returns the usable subset of devices in input order.
func ConnectedDevices(devices []Device) []Device {
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.IsConnected() {
			out = append(out, d)
		}
	}
	return out
}
