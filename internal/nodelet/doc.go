// Package nodelet is the bootstrap core of the node agent: it builds
// the protocol name tables, binds and serves the three listening
// endpoints (local worker channel, node-manager TCP, object-manager
// TCP), and performs the cluster-join registration against the
// membership directory. Scheduling and object transfer live behind
// the NodeManager and ObjectManager boundaries.
package nodelet
