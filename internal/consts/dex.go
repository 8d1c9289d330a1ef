package consts

const (
	DexOKXRouterV2   = iota + 1 // 1
	DexJupiter                  // 2
	DexPumpfunAMM               // 3
	DexPumpfun                  // 4
	DexMeteoraDLMM              // 5
	DexMeteoraPools             // 6
	DexRaydiumV4                // 7
	DexRaydiumCLMM              // 8
	DexRaydiumCPMM              // 9
	DexMoonshot                 // 10
	DexOrcaWhirlpool            // 11
	DexPancakeCLMM              // 12
)

var DexNames = []string{
	"Unknown",       // 0 (保留)
	"OKXRouterV2",   // 1
	"Jupiter",       // 2
	"PumpfunAMM",    // 3
	"Pumpfun",       // 4
	"MeteoraDLMM",   // 5
	"MeteoraPools",  // 6
	"RaydiumV4",     // 7
	"RaydiumCLMM",   // 8
	"RaydiumCPMM",   // 9
	"Moonshot",      // 10
	"OrcaWhirlpool", // 11
	"PancakeCLMM",   // 12
}

func DexName(dex int) string {
	if dex >= 1 && dex < len(DexNames) {
		return DexNames[dex]
	}
	return DexNames[0] // Unknown
}
