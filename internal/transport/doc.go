// Package transport owns connection acceptance and framed-message
// dispatch for the node agent's listening endpoints.
//
// Ownership boundary:
// - ClientConnection: one accepted conn, its read loop, its teardown
// - Acceptor: one bound listener and its accept loop
//
// Payload interpretation belongs to the subsystem behind the handler;
// this package only frames, validates tags, and dispatches.
package transport
