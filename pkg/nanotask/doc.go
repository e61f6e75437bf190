// Package nanotask implements a cooperative interval-task scheduler.
//
// A Task wraps a unit of work with a repeat interval and the instant it
// next becomes due. A Registry owns tasks keyed by identifier and polls
// them as a group. Nothing here spawns goroutines, sleeps, or blocks:
// the caller drives everything by invoking Poll/PollAll from its own
// loop, and tasks decide readiness by comparing timestamps.
//
// Neither Task nor Registry is safe for concurrent use; a caller that
// shares them across goroutines must serialize access itself.
package nanotask
