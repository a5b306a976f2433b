package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/StrathCole/zentro-oracle/pkg/version"
)

// SolanaReader reads oracle accounts through Solana JSON-RPC getAccountInfo.
type SolanaReader struct {
	client     *rpc.Client
	commitment rpc.CommitmentType
}

// Ensure SolanaReader implements AccountReader.
var _ AccountReader = (*SolanaReader)(nil)

// NewSolanaReader creates a reader against the given RPC endpoint.
// An empty commitment defaults to confirmed.
func NewSolanaReader(endpoint string, commitment rpc.CommitmentType) *SolanaReader {
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return &SolanaReader{
		client:     rpc.NewWithHeaders(endpoint, map[string]string{"User-Agent": version.AgentString()}),
		commitment: commitment,
	}
}

func newSolanaFromOptions(opts Options) (AccountReader, error) {
	if opts.Endpoint == "" {
		return nil, ErrEndpointRequired
	}
	return NewSolanaReader(opts.Endpoint, rpc.CommitmentType(opts.Commitment)), nil
}

// GetAccountInfo fetches the account and returns its binary data.
func (r *SolanaReader) GetAccountInfo(ctx context.Context, address string) ([]byte, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAddress, address, err)
	}

	out, err := r.client.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: r.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}

	return out.GetBinary(), nil
}
