// Package gpio drives an X10 power line interface (PSC05, TW523,
// XTB-IIR) wired to GPIO pins.
package gpio

// Pins lists the GPIO numbers. Receive and Indicator are optional,
// 0 disables them.
type Pins struct {
	ZeroCross int `toml:"zero_cross"`
	Transmit  int `toml:"transmit"`
	Receive   int `toml:"receive"`
	Indicator int `toml:"indicator"`
}
