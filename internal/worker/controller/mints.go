package controller

import (
	"context"
	"fmt"
	"time"

	"dex-lens/internal/worker/dao"
	"dex-lens/internal/worker/model"
	"dex-lens/pkg/spltoken"
	"dex-lens/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// MintController 保证被引用的代币在mint表里存在
type MintController struct {
	mints   dao.MintsDAO
	fetcher AccountFetcher
	logger  *zap.Logger
}

func NewMintController(daos *dao.DAOManager, fetcher AccountFetcher, logger *zap.Logger) *MintController {
	return &MintController{
		mints:   daos.MintsDAO,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Resolve 返回请求的代币，库里没有的从链上补。mint账户和
// metadata PDA合并成一次批量拉取；没有metadata的代币只留精度
func (c *MintController) Resolve(ctx context.Context, mintIDs []string) (map[string]*model.Mint, error) {
	ids := utils.Dedup(mintIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	existing, err := c.mints.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load mints: %w", err)
	}

	result := make(map[string]*model.Mint, len(ids))
	for _, mint := range existing {
		result[mint.ID] = mint
	}

	var missing []solana.PublicKey
	for _, id := range ids {
		if _, ok := result[id]; ok {
			continue
		}
		address, err := solana.PublicKeyFromBase58(id)
		if err != nil {
			c.logger.Warn("invalid mint address", zap.String("id", id), zap.Error(err))
			continue
		}
		missing = append(missing, address)
	}
	if len(missing) == 0 {
		return result, nil
	}

	addresses := make([]solana.PublicKey, 0, len(missing)*2)
	addresses = append(addresses, missing...)
	for _, mint := range missing {
		metadataAddress, err := spltoken.MetadataAddress(mint)
		if err != nil {
			return nil, fmt.Errorf("metadata pda for %s: %w", mint, err)
		}
		addresses = append(addresses, metadataAddress)
	}

	accounts, err := c.fetcher.FetchAccounts(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("fetch mint accounts: %w", err)
	}

	created := make([]*model.Mint, 0, len(missing))
	for i, address := range missing {
		account := accounts[i]
		if account == nil {
			c.logger.Warn("mint account missing on chain", zap.String("mint", address.String()))
			continue
		}

		mintAccount, err := spltoken.DecodeMintAccount(account.Data)
		if err != nil {
			c.logger.Warn("mint account undecodable", zap.String("mint", address.String()), zap.Error(err))
			continue
		}

		mint := &model.Mint{
			ID:       address.String(),
			Decimals: mintAccount.Decimals,
			Program:  account.Owner.String(),
			SyncAt:   time.Now(),
		}
		if metaAccount := accounts[len(missing)+i]; metaAccount != nil {
			meta, err := spltoken.DecodeMetadata(metaAccount.Data)
			if err != nil {
				c.logger.Warn("metadata undecodable", zap.String("mint", address.String()), zap.Error(err))
			} else {
				mint.Name = meta.Name
				mint.Symbol = meta.Symbol
				mint.URI = meta.URI
				// metadata原文留档，字段以后变了不用重拉
				raw, _ := sonic.Marshal(map[string]string{
					"name":   meta.Name,
					"symbol": meta.Symbol,
					"uri":    meta.URI,
				})
				extra := datatypes.JSON(raw)
				mint.Extra = &extra
			}
		}
		created = append(created, mint)
	}

	if err := c.mints.BatchInsert(ctx, created); err != nil {
		return nil, fmt.Errorf("insert mints: %w", err)
	}
	for _, mint := range created {
		result[mint.ID] = mint
	}
	return result, nil
}
