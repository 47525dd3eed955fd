package order

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// PlacedTopic is the topic0 of the bridge contract's order creation event.
// Its second topic carries the order id.
var PlacedTopic = common.HexToHash("0x3bb399125b923176baf5098f432689e4843dee54b68daf1d7cadd91d99a63601")

var ErrNoOrderLog = errors.New("receipt contains no order creation log")

// ExtractID pulls the order id out of a submission receipt. The id is the
// indexed first argument of the order creation event.
func ExtractID(receipt *types.Receipt) (common.Hash, error) {
	if receipt == nil {
		return common.Hash{}, ErrNoOrderLog
	}
	for _, log := range receipt.Logs {
		if len(log.Topics) >= 2 && log.Topics[0] == PlacedTopic {
			return log.Topics[1], nil
		}
	}
	return common.Hash{}, ErrNoOrderLog
}
