package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// positionalPrefix is the port-name prefix marking positional slots.
const positionalPrefix = "pos-"

// PositionalPort names the port for positional slot n, e.g. "pos-0".
func PositionalPort(n int) string {
	return fmt.Sprintf("%s%d", positionalPrefix, n)
}

// ParsePositionalPort extracts the slot index from a positional port name.
// Any other port name, including malformed "pos-" variants, reports false
// and is treated as a keyword port.
func ParsePositionalPort(port string) (int, bool) {
	rest, ok := strings.CutPrefix(port, positionalPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
