package registry

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Contract name keys as reported by the address source.
const (
	ContractEscrow       = "Escrow"
	ContractExchange     = "Exchange"
	ContractReserve      = "Reserve"
	ContractGovernance   = "Governance"
	ContractAttestations = "Attestations"
)

var requiredContracts = []string{
	ContractEscrow,
	ContractExchange,
	ContractReserve,
	ContractGovernance,
	ContractAttestations,
}

// Contracts is the resolved system-contract address set. Classification
// cannot run without it; a missing address is startup-fatal, never a
// per-transaction condition.
type Contracts struct {
	Escrow       common.Address
	Exchange     common.Address
	Reserve      common.Address
	Governance   common.Address
	Attestations common.Address
}

// ContractsFromMap validates and resolves the name→address mapping
// returned by the address source.
func ContractsFromMap(addresses map[string]string) (*Contracts, error) {
	var missing []string
	resolved := make(map[string]common.Address, len(requiredContracts))
	for _, name := range requiredContracts {
		hex, ok := addresses[name]
		if !ok || !common.IsHexAddress(hex) {
			missing = append(missing, name)
			continue
		}
		addr := common.HexToAddress(hex)
		if addr == (common.Address{}) {
			missing = append(missing, name)
			continue
		}
		resolved[name] = addr
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("system contract addresses missing or invalid: %s", strings.Join(missing, ", "))
	}

	return &Contracts{
		Escrow:       resolved[ContractEscrow],
		Exchange:     resolved[ContractExchange],
		Reserve:      resolved[ContractReserve],
		Governance:   resolved[ContractGovernance],
		Attestations: resolved[ContractAttestations],
	}, nil
}
