package state

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	configKey          = ethcrypto.Keccak256([]byte("center/config"))
	priceFieldKey      = ethcrypto.Keccak256([]byte("center/price-field"))
	moneyMarketListKey = ethcrypto.Keccak256([]byte("center/money-market-list"))
	commitmentMetaKey  = ethcrypto.Keccak256([]byte("center/commitment-meta"))
	globalHistoryKey   = ethcrypto.Keccak256([]byte("center/history/global"))

	moneyMarketPrefix  = []byte("center/money-market/")
	bondMetaPrefix     = []byte("center/bond/")
	bondContractPrefix = []byte("center/bond-contract/")
	stakePrefix        = []byte("center/stake/")
	collectorPrefix    = []byte("center/fee-collector/")
	commitmentPrefix   = []byte("center/commitment/")
	historyPrefix      = []byte("center/history/")
	supplyPrefix       = []byte("center/supply/")
	balancePrefix      = []byte("center/balance/")
)

// prefixedKey hashes prefix followed by the colon-joined parts.
func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, p := range parts {
		size += len(p) + 1
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, p...)
	}
	return ethcrypto.Keccak256(buf)
}

func moneyMarketKey(id string) []byte { return prefixedKey(moneyMarketPrefix, []byte(id)) }
func bondMetaKey(id string) []byte    { return prefixedKey(bondMetaPrefix, []byte(id)) }

func bondContractKey(id string, owner common.Address, slot uint32) []byte {
	return prefixedKey(bondContractPrefix, []byte(id), owner.Bytes(), []byte(strconv.FormatUint(uint64(slot), 10)))
}

func stakeKey(owner common.Address) []byte      { return prefixedKey(stakePrefix, owner.Bytes()) }
func collectorKey(owner common.Address) []byte  { return prefixedKey(collectorPrefix, owner.Bytes()) }
func commitmentKey(owner common.Address) []byte { return prefixedKey(commitmentPrefix, owner.Bytes()) }
func historyKey(owner common.Address) []byte    { return prefixedKey(historyPrefix, owner.Bytes()) }
func supplyKey(asset string) []byte             { return prefixedKey(supplyPrefix, []byte(asset)) }

func balanceKey(account, asset string) []byte {
	return prefixedKey(balancePrefix, []byte(account), []byte(asset))
}
