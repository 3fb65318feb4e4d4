// Package volume implements the volume status block.
//
// The block shells out to amixer, takes the last line of its output, and
// reads the mute flag and percentage from the bracketed fields, e.g.
//
//	Mono: Playback 50 [75%] [on]
//
// Mixer failures are retried with exponential backoff (1s doubling to 30s)
// and never reach the caller. Lines the parser does not understand are
// returned from Update as *block.UpdateError.
package volume
