package utils

import "fmt"

func PairCacheKey(market, pairID string) string {
	return fmt.Sprintf("dex_lens:pair:%s:%s", market, pairID)
}

func PriceCacheKey(mintID string) string {
	return fmt.Sprintf("dex_lens:price:%s", mintID)
}

func TransactionJobKey(signature string) string {
	return fmt.Sprintf("dex_lens:job:tx:%s", signature)
}

func SyncPairJobKey(market string, offset int) string {
	return fmt.Sprintf("dex_lens:job:sync:%s:%d", market, offset)
}
