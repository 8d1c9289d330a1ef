package consts

import "dex-cpi-indexer-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	//  Programs
	TokenProgramStr = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	WSOLMintStr = "So11111111111111111111111111111111111111112"
	USDCMintStr = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	// 聚合器
	OKXDexRouterV2ProgramStr = "6m2CDdhRgxpH4WjvdzxAYbGxwdGUz5MziiL5jek2kBma"
	JupiterV6ProgramStr      = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	DFlowProgramStr          = "DF1ow4tspfHX9JwWJsAb9epbkA8hmpSEAtxXy1V27QBH"

	// DEX: Raydium
	RaydiumV4ProgramStr   = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	RaydiumCLMMProgramStr = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
	RaydiumCPMMProgramStr = "CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"

	// DEX: Pump.fun
	PumpFunProgramStr    = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	PumpFunAMMProgramStr = "pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA"

	// DEX: Meteora
	MeteoraDLMMProgramStr  = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"
	MeteoraPoolsProgramStr = "Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB"

	// DEX: 其他
	MoonshotProgramStr      = "MoonCVVNZFSYkqNXP6bxHLPL6QQJiMagDL3qcqUQTrG"
	OrcaWhirlpoolProgramStr = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	PancakeCLMMProgramStr   = "HpNfyc2Saw7RKkQd8nEL4khUcuPhQ7WwY1B2qjx8jxFq"
)

var (
	// Programs
	TokenProgram = types.PubkeyFromBase58(TokenProgramStr)

	WSOLMint = types.PubkeyFromBase58(WSOLMintStr)
	USDCMint = types.PubkeyFromBase58(USDCMintStr)

	// 聚合器
	OKXDexRouterV2Program = types.PubkeyFromBase58(OKXDexRouterV2ProgramStr)
	JupiterV6Program      = types.PubkeyFromBase58(JupiterV6ProgramStr)
	DFlowProgram          = types.PubkeyFromBase58(DFlowProgramStr)

	// DEX Program
	RaydiumV4Program     = types.PubkeyFromBase58(RaydiumV4ProgramStr)
	RaydiumCLMMProgram   = types.PubkeyFromBase58(RaydiumCLMMProgramStr)
	RaydiumCPMMProgram   = types.PubkeyFromBase58(RaydiumCPMMProgramStr)
	PumpFunProgram       = types.PubkeyFromBase58(PumpFunProgramStr)
	PumpFunAMMProgram    = types.PubkeyFromBase58(PumpFunAMMProgramStr)
	MeteoraDLMMProgram   = types.PubkeyFromBase58(MeteoraDLMMProgramStr)
	MeteoraPoolsProgram  = types.PubkeyFromBase58(MeteoraPoolsProgramStr)
	MoonshotProgram      = types.PubkeyFromBase58(MoonshotProgramStr)
	OrcaWhirlpoolProgram = types.PubkeyFromBase58(OrcaWhirlpoolProgramStr)
	PancakeCLMMProgram   = types.PubkeyFromBase58(PancakeCLMMProgramStr)
)

// AggregatorPrograms 聚合器程序集合：其 CPI 调用的池子已由聚合器自身计入成交
var AggregatorPrograms = map[types.Pubkey]struct{}{
	OKXDexRouterV2Program: {},
	JupiterV6Program:      {},
}
