package txadapter

import (
	"fmt"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"

	"dex-cpi-indexer-sol/internal/logic/core"
	"dex-cpi-indexer-sol/internal/types"
)

// buildFullAccountKeys 拼接 message.accountKeys 与 Address Lookup Table 中的 writable / readonly 地址，
// 供后续通过 accountIndex 索引使用。一次性预分配切片，避免 append 扩容。
func buildFullAccountKeys(accountKeys, loadedWritable, loadedReadonly [][]byte) ([]types.Pubkey, error) {
	total := len(accountKeys) + len(loadedWritable) + len(loadedReadonly)
	pubkeys := make([]types.Pubkey, total)

	i := 0
	for _, part := range []struct {
		name string
		keys [][]byte
	}{
		{"accountKeys", accountKeys},
		{"loadedWritable", loadedWritable},
		{"loadedReadonly", loadedReadonly},
	} {
		for _, b := range part.keys {
			if len(b) != 32 {
				return nil, fmt.Errorf("invalid pubkey in %s at index %d", part.name, i)
			}
			copy(pubkeys[i][:], b)
			i++
		}
	}
	return pubkeys, nil
}

func convertCompiled(programIDIndex uint32, accounts []byte, data []byte) core.CompiledInstruction {
	idx := make([]int, len(accounts))
	for k, a := range accounts {
		idx[k] = int(a)
	}
	return core.CompiledInstruction{
		ProgramIDIndex: int(programIDIndex),
		Accounts:       idx,
		Data:           data,
	}
}

// AdaptGrpcTx 将 gRPC 推送的交易转换为扁平交易记录。
// 调用方应先通过 ValidateGrpcTx；如 panic 会被 recover 并以 error 返回。
func AdaptGrpcTx(txCtx *core.TxContext, tx *pb.SubscribeUpdateTransactionInfo) (_ *core.TxRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("AdaptGrpcTx panic: %v", r)
		}
	}()

	accountKeys, err := buildFullAccountKeys(
		tx.Transaction.Message.AccountKeys,
		tx.Meta.LoadedWritableAddresses,
		tx.Meta.LoadedReadonlyAddresses,
	)
	if err != nil {
		return nil, fmt.Errorf("buildFullAccountKeys error: %w", err)
	}
	if len(tx.Transaction.Signatures) == 0 || len(accountKeys) == 0 {
		return nil, fmt.Errorf("invalid transaction: missing signature or accountKeys")
	}
	sig, err := types.SignatureFromBytes(tx.Transaction.Signatures[0])
	if err != nil {
		return nil, err
	}

	rawInstructions := tx.Transaction.Message.Instructions
	instructions := make([]core.CompiledInstruction, len(rawInstructions))
	for i, ix := range rawInstructions {
		instructions[i] = convertCompiled(ix.ProgramIdIndex, ix.Accounts, ix.Data)
	}

	groups := make([]core.InnerGroup, len(tx.Meta.InnerInstructions))
	for g, raw := range tx.Meta.InnerInstructions {
		inners := make([]core.InnerInstruction, len(raw.Instructions))
		for j, inner := range raw.Instructions {
			inners[j] = core.InnerInstruction{
				CompiledInstruction: convertCompiled(inner.ProgramIdIndex, inner.Accounts, inner.Data),
				StackHeight:         inner.GetStackHeight(),
			}
		}
		groups[g] = core.InnerGroup{Index: int(raw.Index), Instructions: inners}
	}

	return &core.TxRecord{
		Ctx:          txCtx,
		TxIndex:      uint32(tx.Index),
		Signature:    sig,
		AccountKeys:  accountKeys,
		Instructions: instructions,
		InnerGroups:  groups,
		LogMessages:  tx.Meta.LogMessages,
	}, nil
}
