package ethereum

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress validates a hex address and returns its lowercase form.
// Mixed-case input is accepted regardless of its EIP-55 checksum.
func NormalizeAddress(addr string) (string, bool) {
	addr = strings.TrimSpace(addr)
	if !common.IsHexAddress(addr) {
		return "", false
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), true
}
