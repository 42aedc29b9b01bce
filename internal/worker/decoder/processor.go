package decoder

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// Kind 事件来源，日志或指令
type Kind int

const (
	KindLog Kind = iota
	KindInstruction
)

func (k Kind) String() string {
	if k == KindLog {
		return "log"
	}
	return "instruction"
}

// Event 解码出来的协议事件。Data是协议自己的事件结构体
type Event struct {
	Kind      Kind
	Program   solana.PublicKey
	Name      string
	Signature string
	Data      any
	// Index 顶层指令在交易里的下标；内层指令事件记所属顶层指令的下标。
	// 日志事件没有指令上下文，恒为0
	Index int
	// IsInner 事件是否来自内层指令
	IsInner bool
	// Inner 产生该事件的指令的内层指令，日志事件为空
	Inner []Instruction
}

// LogProcessor 从交易日志解事件
type LogProcessor interface {
	Program() solana.PublicKey
	DecodeLogs(tx *Transaction) ([]*Event, error)
}

// InstructionProcessor 从单条指令解事件
type InstructionProcessor interface {
	Program() solana.PublicKey
	DecodeInstruction(tx *Transaction, instruction *NestedInstruction) ([]*Event, error)
}

// Consumer 消费一条事件
type Consumer func(ctx context.Context, event *Event) error

// Pipe 一个处理器挂一条管道，管道上可以挂多个消费者。
// 没有消费者的管道照常解码，事件直接丢弃
type Pipe struct {
	consumers []Consumer
}

// AddConsumer 追加消费者，按注册顺序执行
func (p *Pipe) AddConsumer(consumer Consumer) *Pipe {
	p.consumers = append(p.consumers, consumer)
	return p
}

// consume 按顺序把事件喂给所有消费者。单个消费者失败不拦住
// 后面的消费者，错误聚合后一次返回
func (p *Pipe) consume(ctx context.Context, events []*Event) error {
	var errs []error
	for _, event := range events {
		for _, consumer := range p.consumers {
			if err := consumer(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
