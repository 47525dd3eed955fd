package bridge

import (
	"math"
	"math/big"
	"math/rand"

	"github.com/t3rntools/bridge-cycler/config"
)

// Bridge amounts are quantized to 5 decimal places so wei conversion stays
// exact in float arithmetic.
const amountDecimals = 5

var weiPerUnit = big.NewInt(1e13) // 10^(18-amountDecimals)

func RoundAmount(amount float64) float64 {
	return math.Round(amount*1e5) / 1e5
}

// ToWei converts a rounded ether amount to wei without float drift.
func ToWei(amount float64) *big.Int {
	units := int64(math.Round(amount * 1e5))
	return new(big.Int).Mul(big.NewInt(units), weiPerUnit)
}

func FromWei(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)).Float64()
	return f
}

// RandomAmount picks a transfer amount uniformly from the configured range.
func RandomAmount(cfg *config.AmountConfig) float64 {
	return RoundAmount(cfg.Min + rand.Float64()*(cfg.Max-cfg.Min))
}
