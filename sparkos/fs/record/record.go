// Package record keeps one small checksummed blob in a single flash erase
// block.
//
// Block layout (little-endian):
//
//	[0:4]  magic "SCAL"
//	[4:6]  payload length
//	[6:10] crc32 (IEEE) of the payload
//	[10:]  payload
package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

var (
	// ErrNoRecord indicates an erased block or one that belongs to something else.
	ErrNoRecord = errors.New("record: no record")
	// ErrCorrupt indicates a record whose length or checksum does not match.
	ErrCorrupt = errors.New("record: corrupt")
	// ErrTooLarge indicates a payload that does not fit the block.
	ErrTooLarge = errors.New("record: payload too large")
	// ErrInvalid indicates a bad offset or an unusable flash device.
	ErrInvalid = errors.New("record: invalid")
)

const headerSize = 10

var magic = [4]byte{'S', 'C', 'A', 'L'}

// Flash is the subset of hal.Flash the store needs.
type Flash interface {
	SizeBytes() uint32
	EraseBlockBytes() uint32
	ReadAt(p []byte, off uint32) (int, error)
	WriteAt(p []byte, off uint32) (int, error)
	Erase(off, size uint32) error
}

// Store reads and writes the record at a fixed block.
type Store struct {
	flash Flash
	off   uint32
	block uint32
}

// New validates that off is block aligned and inside flash.
func New(flash Flash, off uint32) (*Store, error) {
	if flash == nil {
		return nil, fmt.Errorf("%w: nil flash", ErrInvalid)
	}
	block := flash.EraseBlockBytes()
	size := flash.SizeBytes()
	if block < headerSize || size == 0 {
		return nil, fmt.Errorf("%w: flash unavailable (size=%d block=%d)", ErrInvalid, size, block)
	}
	if off%block != 0 || off > size-block {
		return nil, fmt.Errorf("%w: offset 0x%x (block=%d size=%d)", ErrInvalid, off, block, size)
	}
	return &Store{flash: flash, off: off, block: block}, nil
}

// MaxPayload is the largest payload Save accepts.
func (s *Store) MaxPayload() int {
	n := int(s.block) - headerSize
	if n > 0xFFFF {
		n = 0xFFFF
	}
	return n
}

// Save replaces the record with payload.
func (s *Store) Save(payload []byte) error {
	if len(payload) > s.MaxPayload() {
		return fmt.Errorf("%w: %d > %d", ErrTooLarge, len(payload), s.MaxPayload())
	}

	buf := make([]byte, headerSize+len(payload))
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(payload)))
	binary.LittleEndian.PutUint32(buf[6:10], crc32.ChecksumIEEE(payload))
	copy(buf[headerSize:], payload)

	if err := s.flash.Erase(s.off, s.block); err != nil {
		return fmt.Errorf("record: erase 0x%x: %w", s.off, err)
	}
	if _, err := s.flash.WriteAt(buf, s.off); err != nil {
		return fmt.Errorf("record: write 0x%x: %w", s.off, err)
	}
	return nil
}

// Load returns the stored payload.
func (s *Store) Load() ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := s.flash.ReadAt(hdr[:], s.off); err != nil {
		return nil, fmt.Errorf("record: read header 0x%x: %w", s.off, err)
	}
	if !bytes.Equal(hdr[0:4], magic[:]) {
		return nil, ErrNoRecord
	}

	n := int(binary.LittleEndian.Uint16(hdr[4:6]))
	if n > s.MaxPayload() {
		return nil, fmt.Errorf("%w: length %d", ErrCorrupt, n)
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := s.flash.ReadAt(payload, s.off+headerSize); err != nil {
			return nil, fmt.Errorf("record: read payload 0x%x: %w", s.off, err)
		}
	}
	if sum := binary.LittleEndian.Uint32(hdr[6:10]); crc32.ChecksumIEEE(payload) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return payload, nil
}

// Reset erases the record block.
func (s *Store) Reset() error {
	if err := s.flash.Erase(s.off, s.block); err != nil {
		return fmt.Errorf("record: erase 0x%x: %w", s.off, err)
	}
	return nil
}
