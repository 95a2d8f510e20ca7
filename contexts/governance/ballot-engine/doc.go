// Package ballotengine implements the permissioned ballot state machine
// inside the governance context.
//
// Each ballot has one chairperson who grants voting rights, a fixed proposal
// list created with the ballot, and one vote per registered voter. The module
// keeps the state machine in domain/application layers, emits registration
// and vote events through an outbox, and isolates infrastructure behind
// ports and adapters.
package ballotengine
