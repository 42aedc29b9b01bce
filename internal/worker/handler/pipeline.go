// Package handler 把四个协议的解码器接到各自市场的对账控制器上
package handler

import (
	"context"
	"fmt"

	"dex-lens/internal/worker/controller"
	"dex-lens/internal/worker/decoder"
	"dex-lens/internal/worker/decoder/programs/meteora"
	"dex-lens/internal/worker/decoder/programs/orca"
	"dex-lens/internal/worker/decoder/programs/raydium"
	"dex-lens/internal/worker/decoder/programs/saros"
	"dex-lens/internal/worker/model"
	"dex-lens/internal/worker/monitor"

	"go.uber.org/zap"
)

// NewSwapPipeline 每个协议注册日志和事件CPI两条解码路径，
// 同一笔交易两条路径都命中时靠(signature, pair)唯一键去重
func NewSwapPipeline(controllers []controller.Controller, logger *zap.Logger) (*decoder.Pipeline, error) {
	byMarket := make(map[string]controller.Controller, len(controllers))
	for _, c := range controllers {
		byMarket[c.Market()] = c
	}

	pipeline := decoder.NewPipeline(logger)
	wire := func(market string, logProcessor decoder.LogProcessor, instructionProcessor decoder.InstructionProcessor) error {
		c, ok := byMarket[market]
		if !ok {
			return fmt.Errorf("no controller for market %s", market)
		}
		consume := swapConsumer(market, c)
		pipeline.RegisterLogProcessor(logProcessor).AddConsumer(consume)
		pipeline.RegisterInstructionProcessor(instructionProcessor).AddConsumer(consume)
		return nil
	}

	if err := wire(model.MarketSaros, saros.LogProcessor{}, saros.InstructionProcessor{}); err != nil {
		return nil, err
	}
	if err := wire(model.MarketMeteora, meteora.LogProcessor{}, meteora.InstructionProcessor{}); err != nil {
		return nil, err
	}
	if err := wire(model.MarketOrca, orca.LogProcessor{}, orca.InstructionProcessor{}); err != nil {
		return nil, err
	}
	if err := wire(model.MarketRaydium, raydium.LogProcessor{}, raydium.InstructionProcessor{}); err != nil {
		return nil, err
	}
	return pipeline, nil
}

func swapConsumer(market string, c controller.Controller) decoder.Consumer {
	return func(ctx context.Context, event *decoder.Event) error {
		monitor.SwapEventsDecoded.WithLabelValues(market).Inc()
		return c.HandleSwaps(ctx, []*decoder.Event{event})
	}
}
