package calc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrBadSnapshot reports an undecodable snapshot.
var ErrBadSnapshot = errors.New("calc: bad snapshot")

// Snapshot is the part of a Machine that survives a presentation reset.
type Snapshot struct {
	Accumulator     Value
	OperandBuffer   float64
	PendingOperator Op
}

const (
	snapshotVersion = 1

	// SnapshotSize is the encoded length of a Snapshot.
	SnapshotSize = 19

	snapFlagAccumulator = 1 << 0
)

// MarshalBinary encodes s.
//
// Layout (little-endian):
//   - u8: version
//   - u8: flags (bit0=accumulator present)
//   - u8: pending operator
//   - f64: accumulator (0 when absent)
//   - f64: operand buffer
func (s Snapshot) MarshalBinary() ([]byte, error) {
	buf := make([]byte, SnapshotSize)
	buf[0] = snapshotVersion
	acc, ok := s.Accumulator.Get()
	if ok {
		buf[1] |= snapFlagAccumulator
	}
	op := s.PendingOperator
	if !op.Valid() {
		op = OpEquals
	}
	buf[2] = byte(op)
	binary.LittleEndian.PutUint64(buf[3:11], math.Float64bits(acc))
	binary.LittleEndian.PutUint64(buf[11:19], math.Float64bits(s.OperandBuffer))
	return buf, nil
}

// UnmarshalBinary decodes a MarshalBinary payload into s.
func (s *Snapshot) UnmarshalBinary(b []byte) error {
	if len(b) < SnapshotSize {
		return fmt.Errorf("%w: %d bytes", ErrBadSnapshot, len(b))
	}
	if b[0] != snapshotVersion {
		return fmt.Errorf("%w: version %d", ErrBadSnapshot, b[0])
	}
	op := Op(b[2])
	if !op.Valid() {
		return fmt.Errorf("%w: operator %d", ErrBadSnapshot, b[2])
	}

	acc := None()
	if b[1]&snapFlagAccumulator != 0 {
		acc = Some(math.Float64frombits(binary.LittleEndian.Uint64(b[3:11])))
	}
	*s = Snapshot{
		Accumulator:     acc,
		OperandBuffer:   math.Float64frombits(binary.LittleEndian.Uint64(b[11:19])),
		PendingOperator: op,
	}
	return nil
}
