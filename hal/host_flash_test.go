//go:build !tinygo

package hal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileFlash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flash.bin")
	f, err := OpenFlashFile(path, 0)
	if err != nil {
		t.Fatalf("OpenFlashFile() err = %v", err)
	}

	if got := f.SizeBytes(); got != DefaultFlashSize {
		t.Fatalf("SizeBytes() = %d, want %d", got, DefaultFlashSize)
	}
	buf := make([]byte, 4)
	if _, err := f.ReadAt(buf, 100); err != nil {
		t.Fatalf("ReadAt() err = %v", err)
	}
	if buf[0] != 0xFF || buf[3] != 0xFF {
		t.Fatalf("new flash not erased: % x", buf)
	}

	if _, err := f.WriteAt([]byte{0x0F, 0x00}, 100); err != nil {
		t.Fatalf("WriteAt() err = %v", err)
	}
	if _, err := f.WriteAt([]byte{0xF0}, 100); !errors.Is(err, ErrFlashWriteRequiresErase) {
		t.Fatalf("WriteAt() setting bits err = %v, want ErrFlashWriteRequiresErase", err)
	}
	if err := f.Erase(100, 4096); err == nil {
		t.Fatalf("Erase() unaligned err = nil, want error")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() err = %v", err)
	}

	// Reopening keeps the data and ignores the requested size.
	f, err = OpenFlashFile(path, 8192)
	if err != nil {
		t.Fatalf("reopen err = %v", err)
	}
	defer f.Close()
	if got := f.SizeBytes(); got != DefaultFlashSize {
		t.Fatalf("SizeBytes() after reopen = %d, want %d", got, DefaultFlashSize)
	}
	if _, err := f.ReadAt(buf[:2], 100); err != nil {
		t.Fatalf("ReadAt() err = %v", err)
	}
	if buf[0] != 0x0F || buf[1] != 0x00 {
		t.Fatalf("ReadAt() = % x, want 0f 00", buf[:2])
	}
	if err := f.Erase(0, 4096); err != nil {
		t.Fatalf("Erase() err = %v", err)
	}
	if _, err := f.ReadAt(buf[:1], 100); err != nil || buf[0] != 0xFF {
		t.Fatalf("after Erase() byte = %#02x, err = %v", buf[0], err)
	}
}

func TestOpenFlashFileRejectsOddSize(t *testing.T) {
	if _, err := OpenFlashFile(filepath.Join(t.TempDir(), "f"), 1000); err == nil {
		t.Fatalf("OpenFlashFile() err = nil, want error")
	}
}

func TestOpenFlashFileReadOnly(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.bin")
	if _, err := OpenFlashFileReadOnly(missing); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("OpenFlashFileReadOnly(missing) err = %v, want %v", err, os.ErrNotExist)
	}
	if _, err := os.Stat(missing); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("read-only open created %s", missing)
	}

	path := filepath.Join(dir, "flash.bin")
	rw, err := OpenFlashFile(path, 8192)
	if err != nil {
		t.Fatalf("OpenFlashFile() err = %v", err)
	}
	if _, err := rw.WriteAt([]byte{0x5A}, 10); err != nil {
		t.Fatalf("WriteAt() err = %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close() err = %v", err)
	}

	ro, err := OpenFlashFileReadOnly(path)
	if err != nil {
		t.Fatalf("OpenFlashFileReadOnly() err = %v", err)
	}
	defer ro.Close()
	if got := ro.SizeBytes(); got != 8192 {
		t.Fatalf("SizeBytes() = %d, want 8192", got)
	}
	buf := make([]byte, 1)
	if _, err := ro.ReadAt(buf, 10); err != nil || buf[0] != 0x5A {
		t.Fatalf("ReadAt() = %x, %v, want 5a, nil", buf[0], err)
	}
	if err := ro.Erase(0, 4096); err == nil {
		t.Fatal("Erase() on read-only flash err = nil")
	}
}
