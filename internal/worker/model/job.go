package model

// TransactionJob kafka交易消息体。Attempts是已失败的处理次数，
// 重投时递增
type TransactionJob struct {
	Signature string `json:"signature"`
	Attempts  int    `json:"attempts,omitempty"`
}

// SyncPairJob kafka对账分页消息体
type SyncPairJob struct {
	Market string `json:"market"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}
