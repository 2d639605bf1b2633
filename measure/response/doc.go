// Package response measures impulse and frequency responses of per-sample
// audio processors.
//
// It renders test signals (unit impulse, steady sine) through a [Processor],
// transforms the result with an FFT, and exposes the single-sided magnitude
// response with bin interpolation. It is measurement tooling for validation
// and plotting feeds; it performs no processing of its own.
package response
