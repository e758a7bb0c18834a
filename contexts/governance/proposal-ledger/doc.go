// Package proposalledger implements the governance proposal ledger.
//
// The module owns proposal lifecycle (create, lazy status refresh,
// finalization, removal), vote casting with optional retract/change, and
// tie-aware tallies. Every committed operation is journaled before it mutates
// state; the journal doubles as the outbox and as the source for replay at
// process start. Capability checks are delegated to an AccessGate port.
package proposalledger
