// Package poller drives a nanotask.Registry from configuration.
//
// It owns the single goroutine that touches the registry: a loop paced
// by a rate limiter that drains pending removal requests and then polls
// every task. Config reloads diff the declared tasks against the live
// set, retargeting intervals in place where possible.
package poller
