// Package contestengine implements the phased contest lifecycle inside the
// live-events context.
//
// The module owns the forward-only phase clock (submissions through results),
// entry submission and finalist selection, capped ballot casting, jury score
// intake, and the deterministic results tally. It keeps business rules in
// application/domain layers and isolates infrastructure concerns behind ports
// and adapters.
package contestengine
