// Package protocol owns the message-type contract for both wire
// protocol families spoken by the node agent.
//
// Ownership boundary:
// - message-type enumerations (node-manager family, object-transfer family)
// - tag -> name tables used for dispatch diagnostics
// - disconnect sentinel values
package protocol
