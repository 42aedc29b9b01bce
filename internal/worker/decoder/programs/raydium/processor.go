package raydium

import (
	"dex-lens/internal/worker/decoder"

	"github.com/gagliardetto/solana-go"
)

// LogProcessor 从交易日志解SwapEvent
type LogProcessor struct{}

func (LogProcessor) Program() solana.PublicKey { return ProgramID }

func (LogProcessor) DecodeLogs(tx *decoder.Transaction) ([]*decoder.Event, error) {
	var events []*decoder.Event
	for _, payload := range decoder.EventPayloads(tx.Logs) {
		body, ok := decoder.MatchEvent(payload, swapEventDiscriminator)
		if !ok {
			continue
		}
		event, err := DecodeSwapEvent(body)
		if err != nil {
			return nil, err
		}
		events = append(events, &decoder.Event{
			Kind:      decoder.KindLog,
			Program:   ProgramID,
			Name:      SwapEventName,
			Signature: tx.Signature,
			Data:      event,
		})
	}
	return events, nil
}

// InstructionProcessor 从anchor事件CPI指令解SwapEvent
type InstructionProcessor struct{}

func (InstructionProcessor) Program() solana.PublicKey { return ProgramID }

func (InstructionProcessor) DecodeInstruction(tx *decoder.Transaction, instruction *decoder.NestedInstruction) ([]*decoder.Event, error) {
	body, ok := decoder.MatchEventCPI(instruction.Data, swapEventDiscriminator)
	if !ok {
		return nil, nil
	}
	event, err := DecodeSwapEvent(body)
	if err != nil {
		return nil, err
	}
	return []*decoder.Event{{
		Kind:      decoder.KindInstruction,
		Program:   ProgramID,
		Name:      SwapEventName,
		Signature: tx.Signature,
		Data:      event,
		Inner:     instruction.Inner,
	}}, nil
}
