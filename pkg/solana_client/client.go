package solana_client

import (
	"context"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
)

// Init solana rpc client
func Init(rawUrl string) *rpc.Client {
	client := rpc.New(rawUrl)
	return client
}

// InitWS solana websocket client，日志订阅用
func InitWS(ctx context.Context, rawUrl string) (*ws.Client, error) {
	return ws.Connect(ctx, rawUrl)
}
