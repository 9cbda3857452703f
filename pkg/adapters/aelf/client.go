package aelf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/deploykit/internal/logging"
	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/ports"
)

const (
	DefaultNodeURL     = "https://tdvw-test-node.aelf.io"
	DefaultExplorerURL = "https://explorer-test-side02.aelf.io"
	DefaultFaucetURL   = "https://faucet.aelf.dev"
	DefaultCluster     = "testnet"
	// DefaultBalancePath is queried on the explorer with address and symbol parameters.
	DefaultBalancePath = "/api/viewer/balance"

	// Symbol is the native token.
	Symbol = "ELF"
	// Decimals of the native token.
	Decimals = 8
)

// ErrNoSigner is returned by SubmitCode when no wallet capability is configured.
var ErrNoSigner = errors.New("no signer configured")

// Client talks to an aelf node, explorer and faucet.
type Client struct {
	nodeURL     string
	explorerURL string
	faucetURL   string
	balancePath string

	http    *http.Client
	signer  ports.Signer
	decoder LogDecoder
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithNodeURL sets the chain node endpoint.
func WithNodeURL(u string) Option {
	return func(c *Client) {
		c.nodeURL = strings.TrimRight(u, "/")
	}
}

// WithExplorerURL sets the explorer API base URL.
func WithExplorerURL(u string) Option {
	return func(c *Client) {
		c.explorerURL = strings.TrimRight(u, "/")
	}
}

// WithFaucetURL sets the faucet base URL.
func WithFaucetURL(u string) Option {
	return func(c *Client) {
		c.faucetURL = strings.TrimRight(u, "/")
	}
}

// WithBalancePath overrides DefaultBalancePath.
func WithBalancePath(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.balancePath = p
		}
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithSigner sets the wallet capability used by SubmitCode.
func WithSigner(s ports.Signer) Option {
	return func(c *Client) {
		c.signer = s
	}
}

// WithLogDecoder replaces DecodeLog.
func WithLogDecoder(d LogDecoder) Option {
	return func(c *Client) {
		c.decoder = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for the public aelf testnet unless overridden.
func New(opts ...Option) *Client {
	c := &Client{
		nodeURL:     DefaultNodeURL,
		explorerURL: DefaultExplorerURL,
		faucetURL:   DefaultFaucetURL,
		balancePath: DefaultBalancePath,
		http:        &http.Client{Timeout: 30 * time.Second},
		decoder:     DecodeLog,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendTransactionRequest struct {
	RawTransaction string `json:"RawTransaction"`
}

type sendTransactionResponse struct {
	TransactionID string `json:"TransactionId"`
}

// SubmitCode signs the deployment transaction through the signer and broadcasts it.
func (c *Client) SubmitCode(ctx context.Context, code []byte) (string, error) {
	if c.signer == nil {
		return "", ErrNoSigner
	}
	raw, err := c.signer.SignDeployment(ctx, code)
	if err != nil {
		return "", fmt.Errorf("sign deployment: %w", err)
	}

	var out sendTransactionResponse
	err = c.do(ctx, http.MethodPost, c.nodeURL+"/api/blockChain/sendTransaction",
		sendTransactionRequest{RawTransaction: raw}, &out)
	if err != nil {
		return "", err
	}
	c.logger.Debug("Transaction sent", "tx_id", out.TransactionID, "size", len(code))
	return out.TransactionID, nil
}

type rawLog struct {
	Address    string   `json:"Address"`
	Name       string   `json:"Name"`
	Indexed    []string `json:"Indexed"`
	NonIndexed string   `json:"NonIndexed"`
}

type transactionResult struct {
	TransactionID string   `json:"TransactionId"`
	Status        string   `json:"Status"`
	Logs          []rawLog `json:"Logs"`
	BlockNumber   int64    `json:"BlockNumber"`
	BlockHash     string   `json:"BlockHash"`
	Error         string   `json:"Error"`
}

// TransactionStatus reads the transaction result and decodes its logs.
func (c *Client) TransactionStatus(ctx context.Context, txID string) (domain.TransactionRecord, error) {
	var res transactionResult
	u := c.nodeURL + "/api/blockChain/transactionResult?transactionId=" + url.QueryEscape(txID)
	if err := c.do(ctx, http.MethodGet, u, nil, &res); err != nil {
		return domain.TransactionRecord{}, err
	}

	rec := domain.TransactionRecord{
		ID:     txID,
		Status: txStatus(res.Status),
		Block:  domain.BlockInfo{Number: res.BlockNumber, Hash: res.BlockHash},
		Error:  res.Error,
	}
	for _, l := range res.Logs {
		fields, err := c.decoder(l.Name, l.Indexed, l.NonIndexed)
		if err != nil {
			c.logger.Debug("Undecodable log", "tx_id", txID, "log", l.Name, "err", err)
			fields = map[string]any{}
		}
		rec.Logs = append(rec.Logs, domain.Log{Address: l.Address, Name: l.Name, Fields: fields})
	}
	return rec, nil
}

func txStatus(s string) domain.TxStatus {
	switch strings.ToUpper(s) {
	case "PENDING", "PENDING_VALIDATION":
		return domain.TxPending
	case "MINED":
		return domain.TxMined
	default:
		return domain.TxFailed
	}
}

type proposalInfoResponse struct {
	Msg  string `json:"msg"`
	Data struct {
		Proposal struct {
			Status             string `json:"status"`
			IsContractDeployed bool   `json:"isContractDeployed"`
			ContractAddress    string `json:"contractAddress"`
		} `json:"proposal"`
	} `json:"data"`
}

// ProposalStatus reads the governance proposal from the explorer.
func (c *Client) ProposalStatus(ctx context.Context, proposalID string) (domain.ProposalRecord, error) {
	var res proposalInfoResponse
	u := c.explorerURL + "/api/proposal/proposalInfo?proposalId=" + url.QueryEscape(proposalID)
	if err := c.do(ctx, http.MethodGet, u, nil, &res); err != nil {
		return domain.ProposalRecord{}, err
	}
	if res.Msg != "success" {
		return domain.ProposalRecord{}, &domain.ChainError{
			Category: domain.CategoryNotFound,
			Message:  "proposal info not found",
		}
	}

	p := res.Data.Proposal
	rec := domain.ProposalRecord{
		ID:               proposalID,
		ContractAddress:  p.ContractAddress,
		ContractDeployed: p.IsContractDeployed,
	}
	switch strings.ToLower(p.Status) {
	case "expired":
		rec.Status = domain.ProposalExpired
	case "pending", "approved", "active":
		rec.Status = domain.ProposalActive
	default:
		rec.Status = domain.ProposalOther
	}
	return rec, nil
}

type faucetResponse struct {
	IsSuccess bool   `json:"isSuccess"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
}

// RequestFaucet claims test tokens for address.
func (c *Client) RequestFaucet(ctx context.Context, address string) (string, error) {
	var res faucetResponse
	u := c.faucetURL + "/api/claim?walletAddress=" + url.QueryEscape(address)
	if err := c.do(ctx, http.MethodPost, u, nil, &res); err != nil {
		return "", err
	}
	if !res.IsSuccess {
		return "", &domain.ChainError{
			Code:     strconv.Itoa(res.Code),
			Category: domain.CategoryRejected,
			Message:  res.Message,
		}
	}
	return res.Message, nil
}

type balanceResponse struct {
	Msg  string `json:"msg"`
	Data struct {
		Balance json.Number `json:"balance"`
	} `json:"data"`
}

// Balance returns the ELF balance of address in base units.
func (c *Client) Balance(ctx context.Context, address string) (int64, error) {
	var res balanceResponse
	q := url.Values{"address": {address}, "symbol": {Symbol}}
	if err := c.do(ctx, http.MethodGet, c.explorerURL+c.balancePath+"?"+q.Encode(), nil, &res); err != nil {
		return 0, err
	}
	if res.Msg != "" && res.Msg != "success" {
		return 0, &domain.ChainError{Category: domain.CategoryNotFound, Message: res.Msg}
	}
	if res.Data.Balance == "" {
		return 0, nil
	}
	n, err := res.Data.Balance.Int64()
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", res.Data.Balance, err)
	}
	return n, nil
}

// FormatAmount renders base units with the native token decimals.
func FormatAmount(units int64) string {
	return strconv.FormatFloat(float64(units)/1e8, 'f', -1, 64) + " " + Symbol
}

type nodeError struct {
	Error struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
		Details string `json:"Details"`
	} `json:"Error"`
}

func (c *Client) do(ctx context.Context, method, u string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s: %w", req.URL.Path, err)
	}

	if resp.StatusCode >= 300 {
		return chainError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

func chainError(status int, raw []byte) *domain.ChainError {
	var ne nodeError
	if err := json.Unmarshal(raw, &ne); err == nil && ne.Error.Message != "" {
		msg := ne.Error.Message
		if ne.Error.Details != "" {
			msg += "\n" + ne.Error.Details
		}
		code := ne.Error.Code
		if code == "" {
			code = strconv.Itoa(status)
		}
		return &domain.ChainError{Code: code, Category: domain.CategoryValidation, Message: msg, Raw: raw}
	}

	category := domain.CategoryTransport
	if status == http.StatusNotFound {
		category = domain.CategoryNotFound
	}
	return &domain.ChainError{
		Code:     strconv.Itoa(status),
		Category: category,
		Message:  http.StatusText(status),
		Raw:      raw,
	}
}

var _ ports.ChainClient = (*Client)(nil)
