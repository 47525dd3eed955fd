package bridge

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MethodID is the 4-byte selector of the bridge contract's order function.
var MethodID = hexutil.MustDecode("0x56591d59")

// CalldataLength is the selector plus seven 32-byte words.
const CalldataLength = 4 + 7*32

// BuildCalldata encodes an order submission. The layout mirrors what the
// bridge UI sends: destination chain name as right-padded ASCII, then a zero
// word, the recipient, the amount to receive, two zero words and the max
// reward.
func BuildCalldata(destChainName string, recipient common.Address, amount, maxReward *big.Int) ([]byte, error) {
	if len(destChainName) > 32 {
		return nil, fmt.Errorf("destination chain name %q does not fit into 32 bytes", destChainName)
	}
	data := make([]byte, 0, CalldataLength)
	data = append(data, MethodID...)
	data = append(data, common.RightPadBytes([]byte(destChainName), 32)...)
	data = append(data, make([]byte, 32)...)
	data = append(data, common.LeftPadBytes(recipient.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	data = append(data, make([]byte, 64)...)
	data = append(data, common.LeftPadBytes(maxReward.Bytes(), 32)...)
	return data, nil
}
