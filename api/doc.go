// Package api
// Author: momentics <momentics@gmail.com>
//
// Shared contracts for the faultstack library: fault kinds, delivery
// policy, machine-state views, platform boundary and error taxonomy.
// All concrete components (region, registry, capture, policy, facade)
// program against this package.
package api
