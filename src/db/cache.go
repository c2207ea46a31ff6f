package db

import (
	"log"
	"sync"

	"github.com/dgraph-io/ristretto"
)

// Read cache for account and transaction list queries. Keys are tracked per
// type so the sync engine can drop everything a feed delta may have staled.
var (
	Cache           *ristretto.Cache
	accountKeys     = newKeySet()
	transactionKeys = newKeySet()
)

type keySet struct {
	sync.Mutex
	m map[string]struct{}
}

func newKeySet() *keySet {
	return &keySet{m: make(map[string]struct{})}
}

func InitCache() {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64,
	})
	if err != nil {
		log.Fatalf("failed to initialize cache: %v", err)
	}
}

func cacheSet(keys *keySet, key string, value interface{}) {
	if Cache == nil {
		return
	}
	keys.Lock()
	keys.m[key] = struct{}{}
	keys.Unlock()
	Cache.Set(key, value, 1)
}

func cacheGet(key string) (interface{}, bool) {
	if Cache == nil {
		return nil, false
	}
	return Cache.Get(key)
}

func cacheClear(keys *keySet) {
	if Cache == nil {
		return
	}
	keys.Lock()
	for key := range keys.m {
		Cache.Del(key)
	}
	keys.m = make(map[string]struct{})
	keys.Unlock()
}

func SetAccountCache(key string, value interface{})     { cacheSet(accountKeys, key, value) }
func SetTransactionCache(key string, value interface{}) { cacheSet(transactionKeys, key, value) }
func GetCache(key string) (interface{}, bool)           { return cacheGet(key) }
func ClearAccountCaches()                               { cacheClear(accountKeys) }
func ClearTransactionCaches()                           { cacheClear(transactionKeys) }
