// Package directory is the client boundary to the cluster membership
// directory: the service tracking node identities, addresses, and
// resource capacities. The directory's own consistency protocol is
// not modeled here; this package only attaches, reads the local
// descriptor template, and publishes this node's descriptor.
package directory
