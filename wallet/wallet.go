package wallet

import (
	"bufio"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type Wallet struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

// LoadKeys reads hex private keys from a file, one per line. Blank lines and
// lines starting with # are skipped, the 0x prefix is optional.
func LoadKeys(path string) ([]*Wallet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("can't open keys file: %w", err)
	}
	defer file.Close()

	var wallets []*Wallet
	scanner := bufio.NewScanner(file)
	for line := 1; scanner.Scan(); line++ {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key at %s:%d: %w", path, line, err)
		}
		wallets = append(wallets, &Wallet{
			PrivateKey: key,
			Address:    crypto.PubkeyToAddress(key.PublicKey),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("can't read keys file: %w", err)
	}
	if len(wallets) == 0 {
		return nil, fmt.Errorf("keys file %s contains no keys", path)
	}
	return wallets, nil
}
