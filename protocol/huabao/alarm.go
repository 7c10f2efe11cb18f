package huabao

import "github.com/packetify/telematics-gateway/model"

// decodeAlarm maps the 32-bit location-report alarm bitmask to alarm
// tokens, appending each recognized bit to pos in ascending bit order. The
// mapping is model-specific: a handful of OEMs repurpose low bits for
// different conditions than the default table.
func decodeAlarm(pos *model.Position, value uint32, modelName string) {
	switch modelName {
	case ModelG360P, ModelG508P:
		if value&(1<<0) != 0 || value&(1<<4) != 0 {
			pos.AddAlarm(model.AlarmRemoving)
		}
		if value&(1<<1) != 0 {
			pos.AddAlarm(model.AlarmTampering)
		}
		return
	case ModelAL300, ModelGL100:
		if value&(1<<16) != 0 {
			pos.AddAlarm(model.AlarmMovement)
		}
		return
	}

	if value&(1<<0) != 0 {
		pos.AddAlarm(model.AlarmSOS)
	}
	if value&(1<<1) != 0 {
		pos.AddAlarm(model.AlarmOverspeed)
	}
	if value&(1<<4) != 0 || value&(1<<9) != 0 || value&(1<<10) != 0 || value&(1<<11) != 0 {
		pos.AddAlarm(model.AlarmFault)
	}
	if value&(1<<5) != 0 {
		pos.AddAlarm(model.AlarmGPSAntennaCut)
	}
	if value&(1<<7) != 0 || value&(1<<18) != 0 {
		pos.AddAlarm(model.AlarmLowBattery)
	}
	if value&(1<<8) != 0 {
		pos.AddAlarm(model.AlarmPowerOff)
	}
	if value&(1<<15) != 0 {
		pos.AddAlarm(model.AlarmVibration)
	}
	if value&(1<<16) != 0 || value&(1<<17) != 0 {
		pos.AddAlarm(model.AlarmTampering)
	}
	if value&(1<<20) != 0 {
		pos.AddAlarm(model.AlarmGeofence)
	}
	if value&(1<<28) != 0 {
		pos.AddAlarm(model.AlarmMovement)
	}
	if modelName != ModelVL300 && (value&(1<<29) != 0 || value&(1<<30) != 0) {
		pos.AddAlarm(model.AlarmAccident)
	}
}
