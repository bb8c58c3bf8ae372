//go:build !tinygo

package hostcfg

import (
	"flag"
	"fmt"
	"strconv"
)

// uint32Value accepts decimal or 0x-prefixed values and rejects anything
// that does not fit in 32 bits.
type uint32Value struct {
	p *uint32
}

func (v uint32Value) String() string {
	if v.p == nil {
		return "0"
	}
	return fmt.Sprintf("0x%x", *v.p)
}

func (v uint32Value) Set(s string) error {
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	*v.p = uint32(n)
	return nil
}

// Uint32Var defines a uint32 flag on fs whose default is the current *p.
func Uint32Var(fs *flag.FlagSet, p *uint32, name, usage string) {
	fs.Var(uint32Value{p}, name, usage)
}
