package meteora

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// SwapEventName 管道里对外的事件名
const SwapEventName = "swap"

// event:Swap
var swapEventDiscriminator = []byte{0x51, 0x6c, 0xe3, 0xbe, 0xcd, 0xd0, 0x0a, 0xc4}

// SwapEvent Swap事件体
type SwapEvent struct {
	LbPair      solana.PublicKey
	From        solana.PublicKey
	StartBinID  int32
	EndBinID    int32
	AmountIn    uint64
	AmountOut   uint64
	SwapForY    bool
	Fee         uint64
	ProtocolFee uint64
	FeeBps      bin.Uint128
	HostFee     uint64
}

// DecodeSwapEvent 解析事件体，不含discriminator
func DecodeSwapEvent(data []byte) (*SwapEvent, error) {
	var event SwapEvent
	if err := bin.NewBorshDecoder(data).Decode(&event); err != nil {
		return nil, fmt.Errorf("decode meteora swap event: %w", err)
	}
	return &event, nil
}
