package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/apppayai/payflow/internal/domain"
	"github.com/apppayai/payflow/internal/domain/interfaces"
	"github.com/apppayai/payflow/internal/domain/models"
	"github.com/apppayai/payflow/pkg/config"
	"github.com/apppayai/payflow/pkg/currency"
)

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

// Token contracts usually expose 6 or 18 decimals; stablecoin settlement
// defaults to 6 (USDC).
const defaultTokenDecimals = 6

// TransactFunc submits a signed transaction. Signing stays with the
// embedding application (browser wallet, keystore, HSM); this provider only
// prepares calldata and sequences around the submission.
type TransactFunc func(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)

// EVMProvider implements the wallet contract against an EVM chain.
type EVMProvider struct {
	client        *ethclient.Client
	erc20         abi.ABI
	owner         common.Address
	spender       common.Address
	transact      TransactFunc
	tokenDecimals int32
	pollInterval  time.Duration
	timeout       time.Duration
	logger        zerolog.Logger
}

// NewEVMProvider dials the chain RPC. owner is the payer address, spender is
// the settlement contract the route executes through.
func NewEVMProvider(
	rpcURL string,
	owner, spender common.Address,
	transact TransactFunc,
	cfg config.ExecutionConfig,
	logger zerolog.Logger,
) (*EVMProvider, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain rpc: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}

	return &EVMProvider{
		client:        client,
		erc20:         parsed,
		owner:         owner,
		spender:       spender,
		transact:      transact,
		tokenDecimals: defaultTokenDecimals,
		pollInterval:  cfg.ConfirmationPollInterval,
		timeout:       cfg.ConfirmationTimeout,
		logger:        logger,
	}, nil
}

var _ interfaces.WalletProvider = (*EVMProvider)(nil)

func (p *EVMProvider) Close() {
	p.client.Close()
}

// NeedsApproval compares the current allowance against the route's source
// amount. Native-asset routes never need approval.
func (p *EVMProvider) NeedsApproval(ctx context.Context, route *models.Route) (bool, error) {
	if route.FromTokenAddress == "" {
		return false, nil
	}

	required, err := p.atomicAmount(route)
	if err != nil {
		return false, err
	}

	token := common.HexToAddress(route.FromTokenAddress)

	data, err := p.erc20.Pack("allowance", p.owner, p.spender)
	if err != nil {
		return false, fmt.Errorf("failed to pack allowance call: %w", err)
	}

	raw, err := p.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("allowance call failed: %w", err)
	}

	out, err := p.erc20.Unpack("allowance", raw)
	if err != nil {
		return false, fmt.Errorf("failed to unpack allowance result: %w", err)
	}
	allowance := out[0].(*big.Int)

	return allowance.Cmp(required) < 0, nil
}

func (p *EVMProvider) Approve(ctx context.Context, route *models.Route) error {
	required, err := p.atomicAmount(route)
	if err != nil {
		return err
	}

	token := common.HexToAddress(route.FromTokenAddress)

	data, err := p.erc20.Pack("approve", p.spender, required)
	if err != nil {
		return fmt.Errorf("failed to pack approve call: %w", err)
	}

	hash, err := p.transact(ctx, token, data, nil)
	if err != nil {
		return fmt.Errorf("approval transaction failed: %w", err)
	}

	p.logger.Info().Str("tx_hash", hash.Hex()).Str("token", route.FromTokenAddress).Msg("Token approval submitted")

	return p.WaitForConfirmation(ctx, hash.Hex())
}

// SubmitPayment moves the route's source amount into the settlement
// contract: an ERC-20 transfer for token routes, a value transfer for
// native-asset routes. The balance is checked first so insufficient funds
// surface as their own error type instead of a revert.
func (p *EVMProvider) SubmitPayment(ctx context.Context, route *models.Route) (string, error) {
	required, err := p.atomicAmount(route)
	if err != nil {
		return "", err
	}

	if err := p.checkBalance(ctx, route, required); err != nil {
		return "", err
	}

	var hash common.Hash
	if route.FromTokenAddress == "" {
		hash, err = p.transact(ctx, p.spender, nil, required)
	} else {
		token := common.HexToAddress(route.FromTokenAddress)
		var data []byte
		data, err = p.erc20.Pack("transfer", p.spender, required)
		if err != nil {
			return "", fmt.Errorf("failed to pack transfer call: %w", err)
		}
		hash, err = p.transact(ctx, token, data, nil)
	}
	if err != nil {
		return "", fmt.Errorf("payment transaction failed: %w", err)
	}

	p.logger.Info().
		Str("tx_hash", hash.Hex()).
		Str("route_id", route.ID).
		Str("amount", route.FromAmount).
		Msg("Payment transaction submitted")

	return hash.Hex(), nil
}

func (p *EVMProvider) checkBalance(ctx context.Context, route *models.Route, required *big.Int) error {
	var balance *big.Int
	var err error

	if route.FromTokenAddress == "" {
		balance, err = p.client.BalanceAt(ctx, p.owner, nil)
		if err != nil {
			return fmt.Errorf("balance lookup failed: %w", err)
		}
	} else {
		token := common.HexToAddress(route.FromTokenAddress)
		data, packErr := p.erc20.Pack("balanceOf", p.owner)
		if packErr != nil {
			return fmt.Errorf("failed to pack balanceOf call: %w", packErr)
		}
		raw, callErr := p.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
		if callErr != nil {
			return fmt.Errorf("balanceOf call failed: %w", callErr)
		}
		out, unpackErr := p.erc20.Unpack("balanceOf", raw)
		if unpackErr != nil {
			return fmt.Errorf("failed to unpack balanceOf result: %w", unpackErr)
		}
		balance = out[0].(*big.Int)
	}

	if balance.Cmp(required) < 0 {
		return &domain.ExecutionError{
			Kind: models.ErrorInsufficientFunds,
			Err:  fmt.Errorf("%w: have %s, need %s", domain.ErrInsufficientFunds, balance, required),
		}
	}

	return nil
}

// WaitForConfirmation polls for the transaction receipt until it lands or
// the confirmation timeout expires.
func (p *EVMProvider) WaitForConfirmation(ctx context.Context, txHash string) error {
	waitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	hash := common.HexToHash(txHash)

	for {
		receipt, err := p.client.TransactionReceipt(waitCtx, hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return &domain.ExecutionError{
					Kind: models.ErrorGeneric,
					Err:  fmt.Errorf("transaction %s reverted", txHash),
				}
			}
			return nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("receipt lookup failed: %w", err)
		}

		select {
		case <-waitCtx.Done():
			return fmt.Errorf("confirmation wait for %s: %w", txHash, waitCtx.Err())
		case <-time.After(p.pollInterval):
		}
	}
}

func (p *EVMProvider) atomicAmount(route *models.Route) (*big.Int, error) {
	decimals := p.tokenDecimals
	if route.FromTokenAddress == "" {
		decimals = 18
	}

	amount, err := currency.ToAtomic(route.FromAmount, decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid route amount %q: %w", route.FromAmount, err)
	}
	return amount, nil
}
