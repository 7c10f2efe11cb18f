package model

// Reserved attribute keys. Decoders should prefer these over ad-hoc strings
// so that downstream consumers can rely on a stable vocabulary; anything not
// listed here is still a legal attribute key, just not one the core assigns
// meaning to.
const (
	KeyOdometer        = "odometer"
	KeyServiceOdometer = "serviceOdometer"
	KeyTripOdometer    = "tripOdometer"
	KeyHours           = "hours"
	KeyRSSI            = "rssi"
	KeySatellites      = "satellites"
	KeyHDOP            = "hdop"
	KeyVDOP            = "vdop"
	KeyPDOP            = "pdop"
	KeyPower           = "power"
	KeyBattery         = "battery"
	KeyBatteryLevel    = "batteryLevel"
	KeyFuel            = "fuel"
	KeyFuelUsed        = "fuelUsed"
	KeyFuelConsumption = "fuelConsumption"
	KeyFuelLevel       = "fuelLevel"
	KeyIgnition        = "ignition"
	KeyMotion          = "motion"
	KeyCharge          = "charge"
	KeyBlocked         = "blocked"
	KeyDoor            = "door"
	KeyAlarm           = "alarm"
	KeyEvent           = "event"
	KeyStatus          = "status"
	KeyInput           = "input"
	KeyOutput          = "output"
	KeyRPM             = "rpm"
	KeyThrottle        = "throttle"
	KeyEngineLoad      = "engineLoad"
	KeyCoolantTemp     = "coolantTemp"
	KeyEngineTemp      = "engineTemp"
	KeyDeviceTemp      = "deviceTemp"
	KeyHumidity        = "humidity"
	KeyOBDSpeed        = "obdSpeed"
	KeyOBDOdometer     = "obdOdometer"
	KeyVIN             = "vin"
	KeyICCID           = "iccid"
	KeyDTCs            = "dtcs"
	KeyCard            = "card"
	KeyDriverUniqueID  = "driverUniqueId"
	KeyResult          = "result"
	KeyArchive         = "archive"
	KeyApproximate     = "approximate"
	KeyGeofence        = "geofence"
	KeyNetwork         = "network"
	KeyTimezone        = "timezone"

	prefixTemp  = "temp"
	prefixADC   = "adc"
	prefixIO    = "io"
	prefixIn    = "in"
	prefixOut   = "out"
	prefixCount = "count"
)

// KeyTempN, KeyADCN, etc. build the indexed attribute keys for repeated
// per-channel readings. Indexes start at 1, matching the device wire
// protocols that number their channels from one.
func KeyTempN(n int) string  { return indexed(prefixTemp, n) }
func KeyADCN(n int) string   { return indexed(prefixADC, n) }
func KeyIOn(n int) string    { return indexed(prefixIO, n) }
func KeyInN(n int) string    { return indexed(prefixIn, n) }
func KeyOutN(n int) string   { return indexed(prefixOut, n) }
func KeyCountN(n int) string { return indexed(prefixCount, n) }

func indexed(prefix string, n int) string {
	return prefix + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Alarm tokens appended to KeyAlarm, one per recognized condition bit.
const (
	AlarmSOS              = "sos"
	AlarmOverspeed        = "overspeed"
	AlarmVibration        = "vibration"
	AlarmMovement         = "movement"
	AlarmLowBattery       = "lowBattery"
	AlarmLowPower         = "lowPower"
	AlarmPowerOff         = "powerOff"
	AlarmPowerOn          = "powerOn"
	AlarmPowerCut         = "powerCut"
	AlarmPowerRestored    = "powerRestored"
	AlarmTampering        = "tampering"
	AlarmRemoving         = "removing"
	AlarmFault            = "fault"
	AlarmGPSAntennaCut    = "gpsAntennaCut"
	AlarmAccident         = "accident"
	AlarmHardAcceleration = "hardAcceleration"
	AlarmHardBraking      = "hardBraking"
	AlarmHardCornering    = "hardCornering"
	AlarmFatigueDriving   = "fatigueDriving"
	AlarmLaneChange       = "laneChange"
	AlarmGeofence         = "geofence"
	AlarmGeofenceEnter    = "geofenceEnter"
	AlarmGeofenceExit     = "geofenceExit"
	AlarmDoor             = "door"
	AlarmLock             = "lock"
	AlarmUnlock           = "unlock"
	AlarmTow              = "tow"
	AlarmJamming          = "jamming"
	AlarmFuelLeak         = "fuelLeak"
	AlarmTemperature      = "temperature"
	AlarmParking          = "parking"
	AlarmBonnet           = "bonnet"
	AlarmFootBrake        = "footBrake"
	AlarmHighRPM          = "highRpm"
	AlarmIdle             = "idle"
	AlarmFallDown         = "fallDown"
	AlarmLowSpeed         = "lowspeed"
)
