// Package continuation holds the identity-continuation protocol: the private
// state a user carries between rounds, the input bundle a prover executes over,
// and the public journal a relying party learns.
//
// The subpackages are pure and deterministic so that a proving environment can
// replay them bit for bit:
//
//   - commitment binds a state and an external nonce into a digest
//   - authorization verifies (and, server side, produces) the authority signature
//   - banlist decides ban status from ticket-set overlap
//   - executor runs the full state transition
//   - boundary converts 128-bit values to and from decimal strings at the edge
package continuation
