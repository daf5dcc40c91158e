package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PoolContainerID is the container id of the unassigned-staff pool.
const PoolContainerID = "pool"

// ErrInvalidContainerID is returned for container ids that are neither the
// pool nor a "row_column" pair.
var ErrInvalidContainerID = errors.New("invalid container id")

// Kind tells a pool location apart from a cell location.
type Kind int

const (
	KindPool Kind = iota + 1
	KindCell
)

// Location is either the pool or a cell address.
type Location struct {
	Kind   Kind
	Row    int
	Column int
}

// PoolLocation returns the location of the pool.
func PoolLocation() Location {
	return Location{Kind: KindPool}
}

// CellLocation returns the location of the cell at (row, col).
func CellLocation(row, col int) Location {
	return Location{Kind: KindCell, Row: row, Column: col}
}

// IsPool reports whether l is the pool.
func (l Location) IsPool() bool {
	return l.Kind == KindPool
}

// ContainerID encodes l the way drag containers are named on the wire.
func (l Location) ContainerID() string {
	if l.IsPool() {
		return PoolContainerID
	}
	return strconv.Itoa(l.Row) + "_" + strconv.Itoa(l.Column)
}

func (l Location) String() string {
	return l.ContainerID()
}

// ParseContainerID decodes a wire container id.
func ParseContainerID(id string) (Location, error) {
	if id == PoolContainerID {
		return PoolLocation(), nil
	}
	rs, cs, ok := strings.Cut(id, "_")
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidContainerID, id)
	}
	row, err := strconv.Atoi(rs)
	if err != nil || row < 0 {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidContainerID, id)
	}
	col, err := strconv.Atoi(cs)
	if err != nil || col < 0 {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidContainerID, id)
	}
	return CellLocation(row, col), nil
}
