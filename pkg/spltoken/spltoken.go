package spltoken

import (
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Token2022Program token-2022 程序地址
var Token2022Program = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

// MetadataProgram metaplex token metadata 程序地址
var MetadataProgram = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

const (
	tokenAccountLen = 165
	mintAccountLen  = 82
)

// TokenAccount SPL token账户的固定头部
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// DecodeTokenAccount 解析池子vault账户，取余额
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	if len(data) < tokenAccountLen {
		return nil, fmt.Errorf("token account data too short: %d", len(data))
	}
	dec := bin.NewBinDecoder(data)
	var account TokenAccount
	if err := dec.Decode(&account); err != nil {
		return nil, fmt.Errorf("decode token account: %w", err)
	}
	return &account, nil
}

// MintAccount SPL mint账户的固定头部
type MintAccount struct {
	MintAuthorityOption uint32
	MintAuthority       solana.PublicKey
	Supply              uint64
	Decimals            uint8
}

// DecodeMintAccount 解析mint账户，取精度
func DecodeMintAccount(data []byte) (*MintAccount, error) {
	if len(data) < mintAccountLen {
		return nil, fmt.Errorf("mint account data too short: %d", len(data))
	}
	dec := bin.NewBinDecoder(data)
	var account MintAccount
	if err := dec.Decode(&account); err != nil {
		return nil, fmt.Errorf("decode mint account: %w", err)
	}
	return &account, nil
}

// Metadata metaplex metadata账户里我们关心的字段
type Metadata struct {
	Name   string
	Symbol string
	URI    string
}

// DecodeMetadata 解析metaplex metadata账户。name/symbol/uri是定长
// 填充字段，去掉尾部NUL
func DecodeMetadata(data []byte) (*Metadata, error) {
	// key(1) + updateAuthority(32) + mint(32)
	if len(data) < 65 {
		return nil, fmt.Errorf("metadata account data too short: %d", len(data))
	}
	dec := bin.NewBorshDecoder(data[65:])

	var name, symbol, uri string
	if err := dec.Decode(&name); err != nil {
		return nil, fmt.Errorf("decode metadata name: %w", err)
	}
	if err := dec.Decode(&symbol); err != nil {
		return nil, fmt.Errorf("decode metadata symbol: %w", err)
	}
	if err := dec.Decode(&uri); err != nil {
		return nil, fmt.Errorf("decode metadata uri: %w", err)
	}

	return &Metadata{
		Name:   strings.TrimRight(name, "\x00"),
		Symbol: strings.TrimRight(symbol, "\x00"),
		URI:    strings.TrimRight(uri, "\x00"),
	}, nil
}

// MetadataAddress mint对应的metadata PDA
func MetadataAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte("metadata"), MetadataProgram.Bytes(), mint.Bytes()},
		MetadataProgram,
	)
	return addr, err
}

// AssociatedTokenAddress 池子vault的ATA地址，token-2022也适用
func AssociatedTokenAddress(wallet, mint, tokenProgram solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{wallet.Bytes(), tokenProgram.Bytes(), mint.Bytes()},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	return addr, err
}
