// Package x10 encodes and decodes X10 power-line frames.
//
// A frame is 13 bits: the start code 1110, a 4-bit house pattern and a
// 5-bit unit or function pattern. Every bit is carried by a burst on one
// zero-crossing of the mains and, except the start code, followed by its
// complement on the next crossing. The hardware is reached through the
// Line and Clock interfaces so the same engine runs on GPIO pins or on
// the simulated line in package sim.
package x10
