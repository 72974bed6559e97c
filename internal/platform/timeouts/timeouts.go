// Package timeouts defines shared timeout constants used across the
// coordinator. Centralizing these values prevents drift between layers and
// makes the durations discoverable.
package timeouts

import "time"

// RollRequest caps the time allowed for one inbound roll action, including
// every retry of the compare-and-swap cycle.
const RollRequest = 3 * time.Second

// RewardGrant caps the call to the reward-fulfillment collaborator.
const RewardGrant = 2 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
