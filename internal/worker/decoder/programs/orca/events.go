package orca

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// SwapEventName 管道里对外的事件名
const SwapEventName = "traded"

// event:Traded
var swapEventDiscriminator = []byte{0xe1, 0xca, 0x49, 0xaf, 0x93, 0x2b, 0xa0, 0x96}

// SwapEvent Traded事件体
type SwapEvent struct {
	Whirlpool         solana.PublicKey
	AToB              bool
	PreSqrtPrice      bin.Uint128
	PostSqrtPrice     bin.Uint128
	InputAmount       uint64
	OutputAmount      uint64
	InputTransferFee  uint64
	OutputTransferFee uint64
	LpFee             uint64
	ProtocolFee       uint64
}

// DecodeSwapEvent 解析事件体，不含discriminator
func DecodeSwapEvent(data []byte) (*SwapEvent, error) {
	var event SwapEvent
	if err := bin.NewBorshDecoder(data).Decode(&event); err != nil {
		return nil, fmt.Errorf("decode orca traded event: %w", err)
	}
	return &event, nil
}
