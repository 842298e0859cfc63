// Package wire implements the OSCC CAN frame codec.
//
// OSCC modules (brake, steering, throttle) exchange fixed 8-byte CAN
// frames with the supervisor. Every OSCC-originated frame carries a
// 16-bit magic marker in payload bytes 0-1 so receivers can tell OSCC
// traffic apart from unrelated frames that coincidentally share an
// identifier.
//
// # Identifier Layout
//
// Each module owns a block of four standard identifiers:
//
//	enable, disable, command, report
//
// Brake uses 0x070-0x073, steering 0x080-0x083, throttle 0x090-0x093.
// A single fault report identifier (0x0AF) is shared by all modules;
// the payload names the originating module.
//
// # Normalized Magnitudes
//
// Commands carry a normalized magnitude: [0, 1] for pedal position,
// brake pressure and throttle position, [-1, 1] for steering angle and
// torque. Magnitudes are packed as fixed-point integers (uint16 for
// unipolar, int16 for bipolar), so round-tripping a value loses at
// most one quantization step.
//
// Encoding validates the magnitude against its domain and refuses to
// produce a frame for out-of-range values. Decoding validates frame
// length and the magic marker before unpacking any field.
package wire
