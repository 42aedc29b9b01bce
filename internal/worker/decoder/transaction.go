package decoder

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Instruction 解析后的指令，账户索引已还原成地址
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []solana.PublicKey
	Data      []byte
}

// NestedInstruction 顶层指令以及挂在它下面的内层指令
type NestedInstruction struct {
	Instruction
	Inner []Instruction
}

// Transaction 解码入口需要的交易视图
type Transaction struct {
	Signature    string
	Instructions []NestedInstruction
	Logs         []string

	accountKeys solana.PublicKeySlice
}

// NewTransaction 把RPC返回的交易摊平成Transaction。
// meta缺失说明上游请求参数有问题，直接报错而不是静默丢事件
func NewTransaction(out *rpc.GetTransactionResult) (*Transaction, error) {
	if out == nil || out.Meta == nil {
		return nil, fmt.Errorf("transaction meta is missing")
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if len(tx.Signatures) == 0 {
		return nil, fmt.Errorf("transaction has no signature")
	}

	// 地址查找表加载的账户追加在静态账户之后
	accountKeys := append(solana.PublicKeySlice{}, tx.Message.AccountKeys...)
	accountKeys = append(accountKeys, out.Meta.LoadedAddresses.Writable...)
	accountKeys = append(accountKeys, out.Meta.LoadedAddresses.ReadOnly...)

	instructions := make([]NestedInstruction, 0, len(tx.Message.Instructions))
	for index, compiled := range tx.Message.Instructions {
		instruction, err := resolveInstruction(compiled, accountKeys)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", index, err)
		}

		nested := NestedInstruction{Instruction: instruction}
		for _, innerSet := range out.Meta.InnerInstructions {
			if innerSet.Index != uint16(index) {
				continue
			}
			for innerIndex, innerCompiled := range innerSet.Instructions {
				inner, err := resolveInstruction(solana.CompiledInstruction{
					ProgramIDIndex: innerCompiled.ProgramIDIndex,
					Accounts:       innerCompiled.Accounts,
					Data:           innerCompiled.Data,
				}, accountKeys)
				if err != nil {
					return nil, fmt.Errorf("instruction %d.%d: %w", index, innerIndex, err)
				}
				nested.Inner = append(nested.Inner, inner)
			}
		}
		instructions = append(instructions, nested)
	}

	return &Transaction{
		Signature:    tx.Signatures[0].String(),
		Instructions: instructions,
		Logs:         out.Meta.LogMessages,
		accountKeys:  accountKeys,
	}, nil
}

func resolveInstruction(compiled solana.CompiledInstruction, accountKeys solana.PublicKeySlice) (Instruction, error) {
	if int(compiled.ProgramIDIndex) >= len(accountKeys) {
		return Instruction{}, fmt.Errorf("program id index %d out of range", compiled.ProgramIDIndex)
	}

	accounts := make([]solana.PublicKey, 0, len(compiled.Accounts))
	for _, accountIndex := range compiled.Accounts {
		if int(accountIndex) >= len(accountKeys) {
			return Instruction{}, fmt.Errorf("account index %d out of range", accountIndex)
		}
		accounts = append(accounts, accountKeys[accountIndex])
	}

	return Instruction{
		ProgramID: accountKeys[compiled.ProgramIDIndex],
		Accounts:  accounts,
		Data:      compiled.Data,
	}, nil
}
