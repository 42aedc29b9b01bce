package raydium

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// SwapEventName 管道里对外的事件名
const SwapEventName = "swapEvent"

// event:SwapEvent
var swapEventDiscriminator = []byte{0x40, 0xc6, 0xcd, 0xe8, 0x26, 0x08, 0x71, 0xe2}

// SwapEvent CLMM的swap事件体
type SwapEvent struct {
	PoolState     solana.PublicKey
	Sender        solana.PublicKey
	TokenAccount0 solana.PublicKey
	TokenAccount1 solana.PublicKey
	Amount0       uint64
	TransferFee0  uint64
	Amount1       uint64
	TransferFee1  uint64
	ZeroForOne    bool
	SqrtPriceX64  bin.Uint128
	Liquidity     bin.Uint128
	Tick          int32
}

// DecodeSwapEvent 解析事件体，不含discriminator
func DecodeSwapEvent(data []byte) (*SwapEvent, error) {
	var event SwapEvent
	if err := bin.NewBorshDecoder(data).Decode(&event); err != nil {
		return nil, fmt.Errorf("decode raydium swap event: %w", err)
	}
	return &event, nil
}
