package directory

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// NodeID is the durable cluster-wide identity the directory assigns
// or confirms at publish time.
type NodeID string

// NodeDescriptor is the record published to the membership directory
// at cluster join. ResourceLabels and ResourceCapacities are parallel
// sequences, index-aligned.
type NodeDescriptor struct {
	NodeAddress           string    `cbor:"node_address"`
	NodeManagerPort       int       `cbor:"node_manager_port"`
	ObjectManagerPort     int       `cbor:"object_manager_port"`
	SocketPath            string    `cbor:"socket_path"`
	ObjectStoreSocketPath string    `cbor:"object_store_socket_path"`
	ResourceLabels        []string  `cbor:"resources_total_label"`
	ResourceCapacities    []float64 `cbor:"resources_total_capacity"`
}

var ErrResourceMismatch = errors.New("directory: resource label/capacity length mismatch")

// Validate checks the parallel resource sequences stay aligned.
func (d NodeDescriptor) Validate() error {
	if len(d.ResourceLabels) != len(d.ResourceCapacities) {
		return fmt.Errorf("%w: labels=%d capacities=%d",
			ErrResourceMismatch, len(d.ResourceLabels), len(d.ResourceCapacities))
	}
	return nil
}

// EncodeDescriptor serializes a descriptor for directory storage.
func EncodeDescriptor(d NodeDescriptor) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return cbor.Marshal(d)
}

// DecodeDescriptor deserializes a stored descriptor record.
func DecodeDescriptor(b []byte) (NodeDescriptor, error) {
	var d NodeDescriptor
	if err := cbor.Unmarshal(b, &d); err != nil {
		return NodeDescriptor{}, fmt.Errorf("directory: decode descriptor: %w", err)
	}
	if err := d.Validate(); err != nil {
		return NodeDescriptor{}, err
	}
	return d, nil
}
