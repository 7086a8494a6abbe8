// Package calldata decodes transaction input bytes against a registry of
// known system-contract function signatures. The first four bytes select a
// method; the rest is ABI-decoded per that method's parameter list.
// Anything unrecognized or malformed degrades to "no match" rather than an
// error, since unknown calls are common and must not break classification.
package calldata

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// ContractKind names the system contract a method belongs to.
type ContractKind string

const (
	KindEscrow      ContractKind = "escrow"
	KindExchange    ContractKind = "exchange"
	KindStableToken ContractKind = "stable-token"
	KindGovernance  ContractKind = "governance"
)

const methodTransferWithComment = "transferWithComment"

// Method is one registered function signature.
type Method struct {
	Name      string
	Signature string
	Kind      ContractKind
	args      abi.Arguments
}

// Call is a decoded contract call.
type Call struct {
	Method Method
	Args   []any
}

var methodsBySelector = map[[4]byte]Method{}

func init() {
	for _, m := range []Method{
		{Name: methodTransferWithComment, Signature: "transferWithComment(address,uint256,string)", Kind: KindStableToken, args: mustArgs("address", "uint256", "string")},
		{Name: "approve", Signature: "approve(address,uint256)", Kind: KindStableToken, args: mustArgs("address", "uint256")},
		{Name: "withdraw", Signature: "withdraw(bytes32,uint8,bytes32,bytes32)", Kind: KindEscrow, args: mustArgs("bytes32", "uint8", "bytes32", "bytes32")},
		{Name: "transfer", Signature: "transfer(bytes32,address,uint256,uint256,address,uint256)", Kind: KindEscrow, args: mustArgs("bytes32", "address", "uint256", "uint256", "address", "uint256")},
		{Name: "exchange", Signature: "exchange(uint256,uint256,bool)", Kind: KindExchange, args: mustArgs("uint256", "uint256", "bool")},
		{Name: "sell", Signature: "sell(uint256,uint256,bool)", Kind: KindExchange, args: mustArgs("uint256", "uint256", "bool")},
		{Name: "buy", Signature: "buy(uint256,uint256,bool)", Kind: KindExchange, args: mustArgs("uint256", "uint256", "bool")},
		{Name: "vote", Signature: "vote(uint256,uint256,uint8)", Kind: KindGovernance, args: mustArgs("uint256", "uint256", "uint8")},
	} {
		methodsBySelector[Selector(m.Signature)] = m
	}
}

// Selector returns the four-byte function selector for a signature.
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature)))
	return sel
}

// Decode matches input against the method registry. ok is false for empty
// input, unknown selectors, and argument payloads that fail to unpack.
func Decode(input []byte) (Call, bool) {
	if len(input) < 4 {
		return Call{}, false
	}
	var sel [4]byte
	copy(sel[:], input[:4])
	method, ok := methodsBySelector[sel]
	if !ok {
		return Call{}, false
	}
	args, err := method.args.Unpack(input[4:])
	if err != nil {
		return Call{}, false
	}
	return Call{Method: method, Args: args}, true
}

// Comment returns the comment string of a transfer-with-comment call,
// empty for every other method.
func (c Call) Comment() string {
	if c.Method.Name != methodTransferWithComment || len(c.Args) != 3 {
		return ""
	}
	comment, _ := c.Args[2].(string)
	return comment
}

// Pack ABI-encodes a call to a registered method, selector included.
// Used by tests and fixtures to build realistic input payloads.
func Pack(signature string, args ...any) ([]byte, error) {
	sel := Selector(signature)
	method, ok := methodsBySelector[sel]
	if !ok {
		return nil, errUnknownSignature(signature)
	}
	packed, err := method.args.Pack(args...)
	if err != nil {
		return nil, err
	}
	return append(sel[:], packed...), nil
}

type errUnknownSignature string

func (e errUnknownSignature) Error() string {
	return "calldata: unknown signature " + string(e)
}

func mustArgs(types ...string) abi.Arguments {
	args := make(abi.Arguments, len(types))
	for i, ts := range types {
		t, err := abi.NewType(ts, "", nil)
		if err != nil {
			panic(err)
		}
		args[i] = abi.Argument{Type: t}
	}
	return args
}
