package model

type GPIOPin struct {
	Number     int  `json:"number"`
	ActiveHigh bool `json:"active_high"`
}

// NamedPin labels an output line for boot scripts and startup checks.
type NamedPin struct {
	Name string
	Pin  GPIOPin
}

// SensorID names a DS18B20 probe on the 1-wire bus, without the "28-" family prefix.
type SensorID string
