package saros

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// SwapEventName 管道里对外的事件名
const SwapEventName = "binSwapEvent"

// event:BinSwapEvent
var swapEventDiscriminator = []byte{0x37, 0x2a, 0xc0, 0xc2, 0xe6, 0xf3, 0x09, 0x48}

// SwapEvent BinSwapEvent事件体
type SwapEvent struct {
	Pair                  solana.PublicKey
	SwapForY              bool
	AmountIn              uint64
	AmountOut             uint64
	VolatilityAccumulator uint32
	Fee                   uint64
	ProtocolFee           uint64
}

// DecodeSwapEvent 解析事件体，不含discriminator
func DecodeSwapEvent(data []byte) (*SwapEvent, error) {
	var event SwapEvent
	if err := bin.NewBorshDecoder(data).Decode(&event); err != nil {
		return nil, fmt.Errorf("decode saros swap event: %w", err)
	}
	return &event, nil
}
