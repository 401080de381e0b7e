package state

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"nirvana/core/center"
	"nirvana/native/bond"
	"nirvana/native/commitment"
	"nirvana/native/curve"
	"nirvana/native/history"
	"nirvana/native/rewards"
	"nirvana/storage"
)

// Store persists center records as rlp values under Keccak-derived keys.
// Every Commit is written as one batch.
type Store struct {
	db storage.Database
}

// NewStore wraps the database.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

// get decodes the value at key into out. It reports false when the key is
// absent.
func (s *Store) get(key []byte, out interface{}) (bool, error) {
	data, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("state: decode: %w", err)
	}
	return true, nil
}

func put(batch storage.Batch, key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	batch.Put(key, encoded)
	return nil
}

func (s *Store) Config() (*center.Config, error) {
	cfg := new(center.Config)
	ok, err := s.get(configKey, cfg)
	if !ok || err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Store) PriceField() (*curve.PriceField, error) {
	field := new(curve.PriceField)
	ok, err := s.get(priceFieldKey, field)
	if !ok || err != nil {
		return nil, err
	}
	return field, nil
}

func (s *Store) MoneyMarket(id string) (*center.MoneyMarket, error) {
	mm := new(center.MoneyMarket)
	ok, err := s.get(moneyMarketKey(id), mm)
	if !ok || err != nil {
		return nil, err
	}
	return mm, nil
}

// MoneyMarkets returns every stored money market ordered by id.
func (s *Store) MoneyMarkets() ([]*center.MoneyMarket, error) {
	ids, err := s.moneyMarketIDs()
	if err != nil {
		return nil, err
	}
	out := make([]*center.MoneyMarket, 0, len(ids))
	for _, id := range ids {
		mm, err := s.MoneyMarket(id)
		if err != nil {
			return nil, err
		}
		if mm != nil {
			out = append(out, mm)
		}
	}
	return out, nil
}

func (s *Store) moneyMarketIDs() ([]string, error) {
	var ids []string
	if _, err := s.get(moneyMarketListKey, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) BondMeta(id string) (*bond.Meta, error) {
	meta := new(bond.Meta)
	ok, err := s.get(bondMetaKey(id), meta)
	if !ok || err != nil {
		return nil, err
	}
	return meta, nil
}

func (s *Store) BondContract(key center.BondKey) (*bond.Contract, error) {
	contract := new(bond.Contract)
	ok, err := s.get(bondContractKey(key.Bond, key.Owner, key.Slot), contract)
	if !ok || err != nil {
		return nil, err
	}
	return contract, nil
}

func (s *Store) StakeRecord(owner common.Address) (*rewards.StakeRecord, error) {
	rec := new(rewards.StakeRecord)
	ok, err := s.get(stakeKey(owner), rec)
	if !ok || err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) FeeCollector(owner common.Address) (*rewards.FeeCollector, error) {
	c := new(rewards.FeeCollector)
	ok, err := s.get(collectorKey(owner), c)
	if !ok || err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) Commitment(owner common.Address) (*commitment.Commitment, error) {
	c := new(commitment.Commitment)
	ok, err := s.get(commitmentKey(owner), c)
	if !ok || err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) CommitmentMeta() (*commitment.Meta, error) {
	meta := new(commitment.Meta)
	ok, err := s.get(commitmentMetaKey, meta)
	if !ok || err != nil {
		return nil, err
	}
	return meta, nil
}

func (s *Store) History(owner common.Address) (*history.Personal, error) {
	h := new(history.Personal)
	ok, err := s.get(historyKey(owner), h)
	if !ok || err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Store) GlobalHistory() (*history.Global, error) {
	g := new(history.Global)
	ok, err := s.get(globalHistoryKey, g)
	if !ok || err != nil {
		return nil, err
	}
	return g, nil
}

// Supply returns the tracked supply of a protocol token.
func (s *Store) Supply(asset center.Asset) (uint64, error) {
	var v uint64
	_, err := s.get(supplyKey(string(asset)), &v)
	return v, err
}

// Balance returns a protocol account's balance.
func (s *Store) Balance(account center.Account, asset center.Asset) (uint64, error) {
	var v uint64
	_, err := s.get(balanceKey(string(account), string(asset)), &v)
	return v, err
}

// Commit writes every record in the update and folds the receipt into the
// supply and balance counters in a single batch.
func (s *Store) Commit(update *center.Update, receipt *center.Receipt) error {
	if update == nil {
		return nil
	}
	batch := s.db.NewBatch()
	if err := s.stage(batch, update); err != nil {
		return err
	}
	if err := center.ApplyReceipt(&batchBook{store: s, batch: batch}, receipt); err != nil {
		return err
	}
	return batch.Write()
}

func (s *Store) stage(batch storage.Batch, u *center.Update) error {
	if u.Config != nil {
		if err := put(batch, configKey, u.Config); err != nil {
			return err
		}
	}
	if u.PriceField != nil {
		if err := put(batch, priceFieldKey, u.PriceField); err != nil {
			return err
		}
	}
	if len(u.MoneyMarkets) > 0 {
		ids, err := s.moneyMarketIDs()
		if err != nil {
			return err
		}
		known := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			known[id] = struct{}{}
		}
		for _, mm := range u.MoneyMarkets {
			if err := put(batch, moneyMarketKey(mm.ID), mm); err != nil {
				return err
			}
			if _, ok := known[mm.ID]; !ok {
				known[mm.ID] = struct{}{}
				ids = append(ids, mm.ID)
			}
		}
		sort.Strings(ids)
		if err := put(batch, moneyMarketListKey, ids); err != nil {
			return err
		}
	}
	for id, meta := range u.BondMetas {
		if err := put(batch, bondMetaKey(id), meta); err != nil {
			return err
		}
	}
	if u.BondContract != nil {
		if err := put(batch, bondContractKey(u.BondKey.Bond, u.BondKey.Owner, u.BondKey.Slot), u.BondContract); err != nil {
			return err
		}
	}
	if u.StakeRecord != nil {
		if err := put(batch, stakeKey(u.Owner), u.StakeRecord); err != nil {
			return err
		}
	}
	if u.FeeCollector != nil {
		if err := put(batch, collectorKey(u.Owner), u.FeeCollector); err != nil {
			return err
		}
	}
	if u.Commitment != nil {
		if err := put(batch, commitmentKey(u.Owner), u.Commitment); err != nil {
			return err
		}
	}
	if u.CommitmentMeta != nil {
		if err := put(batch, commitmentMetaKey, u.CommitmentMeta); err != nil {
			return err
		}
	}
	if u.History != nil {
		if err := put(batch, historyKey(u.Owner), u.History); err != nil {
			return err
		}
	}
	if u.GlobalHistory != nil {
		if err := put(batch, globalHistoryKey, u.GlobalHistory); err != nil {
			return err
		}
	}
	return nil
}

// batchBook reads committed counters and stages new values into the batch.
type batchBook struct {
	store *Store
	batch storage.Batch
}

func (b *batchBook) Supply(asset center.Asset) (uint64, error) { return b.store.Supply(asset) }

func (b *batchBook) SetSupply(asset center.Asset, value uint64) error {
	return put(b.batch, supplyKey(string(asset)), value)
}

func (b *batchBook) Balance(account center.Account, asset center.Asset) (uint64, error) {
	return b.store.Balance(account, asset)
}

func (b *batchBook) SetBalance(account center.Account, asset center.Asset, value uint64) error {
	return put(b.batch, balanceKey(string(account), string(asset)), value)
}
