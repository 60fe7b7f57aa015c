// Package cascade
// Author: momentics <momentics@gmail.com>
//
// Explicit model of the fault-cascade life cycle: armed handler, nested
// handling at increasing depth, terminal state. Depth is threaded as
// data rather than recovered from the call stack, so bounding logic is
// testable independent of the platform. The package also records
// observed deliveries in a bounded journal for offline comparison of
// platform cascade behavior. Nothing here runs on the fault path.
package cascade
