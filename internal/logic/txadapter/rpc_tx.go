package txadapter

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/client"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/types"
)

// AdaptRPCTx 将 getTransaction 的结果转换为扁平交易记录。
// RPC 返回的 inner 指令不带 stackHeight，调用深度由 BuildInstructionTree 从日志恢复。
func AdaptRPCTx(tx *client.Transaction) (*core.TxRecord, error) {
	if tx == nil || tx.Meta == nil {
		return nil, fmt.Errorf("missing transaction meta data")
	}
	if len(tx.Transaction.Signatures) == 0 {
		return nil, fmt.Errorf("missing transaction signature")
	}
	sig, err := types.SignatureFromBytes(tx.Transaction.Signatures[0])
	if err != nil {
		return nil, err
	}

	msg := tx.Transaction.Message
	keys := make([]types.Pubkey, 0, len(msg.Accounts)+len(tx.Meta.LoadedAddresses.Writable)+len(tx.Meta.LoadedAddresses.Readonly))
	for _, acc := range msg.Accounts {
		keys = append(keys, types.Pubkey(acc))
	}
	for _, part := range [][]string{tx.Meta.LoadedAddresses.Writable, tx.Meta.LoadedAddresses.Readonly} {
		for _, s := range part {
			pk, err := types.TryPubkeyFromBase58(s)
			if err != nil {
				return nil, fmt.Errorf("loaded address: %w", err)
			}
			keys = append(keys, pk)
		}
	}

	instructions := make([]core.CompiledInstruction, len(msg.Instructions))
	for i, ix := range msg.Instructions {
		instructions[i] = core.CompiledInstruction{
			ProgramIDIndex: ix.ProgramIDIndex,
			Accounts:       ix.Accounts,
			Data:           ix.Data,
		}
	}

	groups := make([]core.InnerGroup, len(tx.Meta.InnerInstructions))
	for g, raw := range tx.Meta.InnerInstructions {
		inners := make([]core.InnerInstruction, len(raw.Instructions))
		for j, ix := range raw.Instructions {
			inners[j] = core.InnerInstruction{CompiledInstruction: core.CompiledInstruction{
				ProgramIDIndex: ix.ProgramIDIndex,
				Accounts:       ix.Accounts,
				Data:           ix.Data,
			}}
		}
		groups[g] = core.InnerGroup{Index: int(raw.Index), Instructions: inners}
	}

	txCtx := &core.TxContext{Slot: tx.Slot}
	if tx.BlockTime != nil {
		txCtx.BlockTime = *tx.BlockTime
	}
	return &core.TxRecord{
		Ctx:          txCtx,
		Signature:    sig,
		AccountKeys:  keys,
		Instructions: instructions,
		InnerGroups:  groups,
		LogMessages:  tx.Meta.LogMessages,
	}, nil
}
