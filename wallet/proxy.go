package wallet

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ProxyPool assigns proxies to wallets round-robin by wallet index.
type ProxyPool struct {
	proxies []string
}

// LoadProxies reads proxy urls from a file, one per line. Bare host:port
// entries get an http scheme. A missing or empty file yields an empty pool.
func LoadProxies(path string) (*ProxyPool, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ProxyPool{}, nil
		}
		return nil, fmt.Errorf("can't open proxies file: %w", err)
	}
	defer file.Close()

	pool := &ProxyPool{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		pool.proxies = append(pool.proxies, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("can't read proxies file: %w", err)
	}
	return pool, nil
}

func (p *ProxyPool) Len() int {
	return len(p.proxies)
}

// ForIndex returns the proxy assigned to a wallet index, or an empty string
// when the pool is empty.
func (p *ProxyPool) ForIndex(index int) string {
	if len(p.proxies) == 0 {
		return ""
	}
	return p.proxies[index%len(p.proxies)]
}
