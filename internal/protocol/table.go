package protocol

import (
	"errors"
	"fmt"
)

// EmptyMessageName fills table slots below the first valid tag so
// indexing by any tag in [0, max] resolves to a printable name.
const EmptyMessageName = "EmptyMessageType"

var ErrTableMismatch = errors.New("protocol: message type table mismatch")

// NameTable maps message-type tags to their generated names for one
// protocol family. Built once at startup, immutable afterwards.
type NameTable struct {
	family string
	names  []string
}

// BuildNameTable constructs the tag -> name table for one family from
// its generated name list and declared tag range. The table starts
// with startIndex placeholder entries followed by every generated
// name in order. The enumeration and its name list are produced by
// separate generation steps; a size disagreement means they have
// drifted and the process must not start.
func BuildNameTable(family string, names []string, startIndex, endIndex int64) (NameTable, error) {
	table := make([]string, 0, startIndex+int64(len(names)))
	for i := int64(0); i < startIndex; i++ {
		table = append(table, EmptyMessageName)
	}
	table = append(table, names...)
	if int64(len(table))-1 != endIndex {
		return NameTable{}, fmt.Errorf(
			"%w: family=%q table_size=%d declared_max=%d",
			ErrTableMismatch, family, len(table), endIndex,
		)
	}
	return NameTable{family: family, names: table}, nil
}

// Family returns the protocol family label the table was built for.
func (t NameTable) Family() string {
	return t.family
}

// Size returns the number of entries, placeholders included.
func (t NameTable) Size() int {
	return len(t.names)
}

// Name resolves a tag to its generated name. Tags outside [0, max)
// resolve to a diagnostic placeholder rather than panicking; they can
// arrive off the wire from a misbehaving peer.
func (t NameTable) Name(tag int64) string {
	if tag < 0 || tag >= int64(len(t.names)) {
		return fmt.Sprintf("UnknownMessageType(%d)", tag)
	}
	return t.names[tag]
}
