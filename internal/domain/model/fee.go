package model

import "math/big"

type FeeType string

const (
	FeeSecurity          FeeType = "SECURITY_FEE"
	FeeGateway           FeeType = "GATEWAY_FEE"
	FeeOneTimeEncryption FeeType = "ONE_TIME_ENCRYPTION_FEE"
	FeeInvitation        FeeType = "INVITATION_FEE"
)

// Fee is a typed monetary cost reconstructed from positional fee-carrier
// transfers. Fees of the same type on one logical transaction are summed,
// never replaced.
type Fee struct {
	Type         FeeType
	Value        *big.Int
	CurrencyCode CurrencyCode
}
