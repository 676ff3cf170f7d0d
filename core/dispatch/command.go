package dispatch

import "github.com/kilianp07/hems/core/model"

// Command is the service call a value translates to for a device.
type Command struct {
	Service string
	Data    map[string]any
}

// CommandFor maps a value to the service call for the device domain. Domains
// without a setpoint are switched on for positive values and off otherwise.
func CommandFor(id model.DeviceID, value float64) Command {
	data := map[string]any{"entity_id": id.String()}
	switch id.Domain() {
	case model.DomainClimate:
		data["temperature"] = value
		return Command{Service: "set_temperature", Data: data}
	case model.DomainNumber:
		data["value"] = value
		return Command{Service: "set_value", Data: data}
	case model.DomainCover:
		if value > 0 {
			return Command{Service: "open_cover", Data: data}
		}
		return Command{Service: "close_cover", Data: data}
	default:
		if value > 0 {
			return Command{Service: "turn_on", Data: data}
		}
		return Command{Service: "turn_off", Data: data}
	}
}
