// Package chain 封装对Solana RPC的只读访问
package chain

import (
	"context"
	"fmt"

	"dex-lens/internal/worker/decoder"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// getMultipleAccounts单次上限
const fetchAccountsBatch = 100

// AccountInfo 账户原始数据。FetchAccounts对不存在的账户返回nil
type AccountInfo struct {
	Address solana.PublicKey
	Owner   solana.PublicKey
	Data    []byte
}

// Client 链上读取客户端
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

func NewClient(rpcClient *rpc.Client, logger *zap.Logger) *Client {
	return &Client{rpc: rpcClient, logger: logger}
}

// FetchAccounts 批量拉账户，返回和入参等长的切片，不存在的位置为nil
func (c *Client) FetchAccounts(ctx context.Context, addresses []solana.PublicKey) ([]*AccountInfo, error) {
	accounts := make([]*AccountInfo, len(addresses))

	for start := 0; start < len(addresses); start += fetchAccountsBatch {
		end := start + fetchAccountsBatch
		if end > len(addresses) {
			end = len(addresses)
		}
		batch := addresses[start:end]

		out, err := c.rpc.GetMultipleAccountsWithOpts(ctx, batch, &rpc.GetMultipleAccountsOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: rpc.CommitmentConfirmed,
		})
		if err != nil {
			return nil, fmt.Errorf("get multiple accounts: %w", err)
		}
		if len(out.Value) != len(batch) {
			return nil, fmt.Errorf("get multiple accounts: expected %d results, got %d", len(batch), len(out.Value))
		}

		for i, account := range out.Value {
			if account == nil {
				continue
			}
			accounts[start+i] = &AccountInfo{
				Address: batch[i],
				Owner:   account.Owner,
				Data:    account.Data.GetBinary(),
			}
		}
	}

	return accounts, nil
}

// FetchTransaction 拉一笔已确认交易并摊平。链上执行失败的交易返回nil
func (c *Client) FetchTransaction(ctx context.Context, signature string) (*decoder.Transaction, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("parse signature %s: %w", signature, err)
	}

	maxVersion := uint64(0)
	out, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("get transaction %s: %w", signature, err)
	}
	if out == nil || out.Meta == nil {
		return nil, fmt.Errorf("transaction %s has no meta", signature)
	}

	if out.Meta.Err != nil {
		c.logger.Debug("skip failed transaction", zap.String("signature", signature))
		return nil, nil
	}

	return decoder.NewTransaction(out)
}
