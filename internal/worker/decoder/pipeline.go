package decoder

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type logPipe struct {
	processor LogProcessor
	pipe      *Pipe
}

type instructionPipe struct {
	processor InstructionProcessor
	pipe      *Pipe
}

// Pipeline 把一笔交易分发给注册的处理器。同一条管道内
// 事件按交易内顺序串行消费，不同管道之间并发
type Pipeline struct {
	logPipes         []*logPipe
	instructionPipes []*instructionPipe
	logger           *zap.Logger
}

func NewPipeline(logger *zap.Logger) *Pipeline {
	return &Pipeline{logger: logger}
}

// RegisterLogProcessor 注册日志处理器，返回它的管道
func (p *Pipeline) RegisterLogProcessor(processor LogProcessor) *Pipe {
	entry := &logPipe{processor: processor, pipe: &Pipe{}}
	p.logPipes = append(p.logPipes, entry)
	return entry.pipe
}

// RegisterInstructionProcessor 注册指令处理器，返回它的管道
func (p *Pipeline) RegisterInstructionProcessor(processor InstructionProcessor) *Pipe {
	entry := &instructionPipe{processor: processor, pipe: &Pipe{}}
	p.instructionPipes = append(p.instructionPipes, entry)
	return entry.pipe
}

// Process 解码并分发一笔交易。单条管道失败不影响其他管道，
// 所有管道跑完后聚合返回错误
func (p *Pipeline) Process(ctx context.Context, tx *Transaction) error {
	taskPool := pool.New().WithErrors().WithContext(ctx)

	for _, entry := range p.logPipes {
		entry := entry
		taskPool.Go(func(ctx context.Context) error {
			events, err := entry.processor.DecodeLogs(tx)
			if err != nil {
				return fmt.Errorf("decode logs %s: %w", entry.processor.Program(), err)
			}
			if len(events) == 0 {
				return nil
			}
			p.logger.Debug("decoded log events",
				zap.String("program", entry.processor.Program().String()),
				zap.String("signature", tx.Signature),
				zap.Int("events", len(events)))
			return entry.pipe.consume(ctx, events)
		})
	}

	for _, entry := range p.instructionPipes {
		entry := entry
		taskPool.Go(func(ctx context.Context) error {
			events, err := p.collectInstructionEvents(entry.processor, tx)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return nil
			}
			p.logger.Debug("decoded instruction events",
				zap.String("program", entry.processor.Program().String()),
				zap.String("signature", tx.Signature),
				zap.Int("events", len(events)))
			return entry.pipe.consume(ctx, events)
		})
	}

	return taskPool.Wait()
}

// collectInstructionEvents 按交易内顺序收集一个程序的指令事件：
// 先顶层指令，再它的内层指令，然后才轮到下一条顶层指令
func (p *Pipeline) collectInstructionEvents(processor InstructionProcessor, tx *Transaction) ([]*Event, error) {
	program := processor.Program()

	var events []*Event
	for index := range tx.Instructions {
		nested := &tx.Instructions[index]

		if nested.ProgramID.Equals(program) {
			decoded, err := processor.DecodeInstruction(tx, nested)
			if err != nil {
				return nil, fmt.Errorf("decode instruction %s: %w", program, err)
			}
			for _, event := range decoded {
				event.Index = index
			}
			events = append(events, decoded...)
		}

		for innerIndex := range nested.Inner {
			inner := &nested.Inner[innerIndex]
			if !inner.ProgramID.Equals(program) {
				continue
			}
			decoded, err := processor.DecodeInstruction(tx, &NestedInstruction{Instruction: *inner})
			if err != nil {
				return nil, fmt.Errorf("decode inner instruction %s: %w", program, err)
			}
			for _, event := range decoded {
				event.Index = index
				event.IsInner = true
			}
			events = append(events, decoded...)
		}
	}

	return events, nil
}
