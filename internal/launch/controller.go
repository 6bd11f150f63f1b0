package launch

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"tokenlaunch/internal/amm"
	"tokenlaunch/internal/event"
	"tokenlaunch/internal/pricing"
	"tokenlaunch/internal/token"
	"tokenlaunch/internal/venue"
)

// Config carries the launch parameters shared by every token.
type Config struct {
	// Quote is the asset every launch pool trades against.
	Quote common.Address

	// TokenSupply is minted to custody for each new token.
	TokenSupply *uint256.Int

	// BootstrapRate is the fixed-point amount of token paid per unit of
	// quote while the pool has no quote-side liquidity.
	BootstrapRate *uint256.Int

	// MigrationThresholdUSD is the market cap, in 8-decimal USD, at which
	// a buy triggers migration to the external venue.
	MigrationThresholdUSD *big.Int

	// MigrationFractionBps is the share of internal liquidity moved to the
	// venue on migration, in basis points.
	MigrationFractionBps uint32

	// VenueFee is the fee tier of the venue pool created on migration.
	VenueFee uint32

	// CreatorFeeBps is the creator's cut of collected venue fees.
	CreatorFeeBps uint32

	// OracleMaxAge bounds the age of oracle prices used for migration
	// decisions. Zero disables the check.
	OracleMaxAge time.Duration
}

// Launch is the controller's record for one token.
type Launch struct {
	Token       common.Address
	Creator     common.Address
	Name        string
	Symbol      string
	State       State
	Pair        amm.PairID
	PositionID  uint64
	PoolAddress common.Address
}

// Controller owns the token lifecycle: creation, bootstrap trading,
// open trading, and migration to the external venue. All balance moves
// run against the custody account; callers never touch pool reserves
// directly.
type Controller struct {
	cfg       Config
	ledger    *amm.Ledger
	assets    *token.Book
	venue     *venue.Adapter
	oracle    pricing.Oracle
	emitter   *event.Emitter
	logger    *zap.Logger
	whitelist *Whitelist

	custody  common.Address
	treasury common.Address

	mu     sync.RWMutex
	tokens map[common.Address]*Launch
	nonce  uint64

	now func() time.Time
}

func NewController(
	cfg Config,
	ledger *amm.Ledger,
	assets *token.Book,
	venueAdapter *venue.Adapter,
	oracle pricing.Oracle,
	emitter *event.Emitter,
	whitelist *Whitelist,
	custody, treasury common.Address,
	logger *zap.Logger,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if emitter == nil {
		emitter = event.NewEmitter(logger)
	}
	if whitelist == nil {
		whitelist = NewWhitelist()
	}
	return &Controller{
		cfg:       cfg,
		ledger:    ledger,
		assets:    assets,
		venue:     venueAdapter,
		oracle:    oracle,
		emitter:   emitter,
		logger:    logger,
		whitelist: whitelist,
		custody:   custody,
		treasury:  treasury,
		tokens:    make(map[common.Address]*Launch),
		now:       time.Now,
	}
}

// Whitelist exposes the creation whitelist for runtime management.
func (c *Controller) Whitelist() *Whitelist {
	return c.whitelist
}

// CreateToken deploys a new launch token with the configured supply
// minted to custody. The token starts in the seeding state with no pool.
func (c *Controller) CreateToken(ctx context.Context, creator common.Address, name, symbol string) (common.Address, error) {
	if err := c.whitelist.Require(creator); err != nil {
		return common.Address{}, err
	}

	c.mu.Lock()
	c.nonce++
	tok := token.NewStandardToken(c.custody, c.nonce, name, symbol, 18)
	c.mu.Unlock()

	if err := tok.Mint(c.custody, c.cfg.TokenSupply); err != nil {
		return common.Address{}, fmt.Errorf("mint initial supply: %w", err)
	}
	c.assets.Register(tok)

	rec := &Launch{
		Token:   tok.Address(),
		Creator: creator,
		Name:    name,
		Symbol:  symbol,
		State:   StateSeeding,
		Pair:    amm.PairIDFor(tok.Address(), c.cfg.Quote),
	}
	c.mu.Lock()
	c.tokens[rec.Token] = rec
	c.mu.Unlock()

	c.logger.Info("token created",
		zap.String("token", rec.Token.Hex()),
		zap.String("symbol", symbol),
		zap.String("creator", creator.Hex()),
	)
	c.emitter.Emit(event.NameTokenCreated, event.TokenCreatedData{
		Token:       rec.Token.Hex(),
		Name:        name,
		Symbol:      symbol,
		Creator:     creator.Hex(),
		TotalSupply: c.cfg.TokenSupply.Dec(),
	})
	return rec.Token, nil
}

// SeedPool seeds the token's trading pool at the zero-price bootstrap
// rate and opens bootstrap trading. Only the creator may open the pool.
func (c *Controller) SeedPool(ctx context.Context, caller, tokenAddr common.Address) error {
	rec, err := c.launch(tokenAddr)
	if err != nil {
		return err
	}
	if caller != rec.Creator {
		return ErrUnauthorized
	}
	if rec.State != StateSeeding {
		return ErrPoolAlreadyCreated
	}

	ctx, release, err := c.ledger.Guard().Enter(ctx, rec.Pair)
	if err != nil {
		return err
	}
	defer release()

	if _, err := c.ledger.SeedZeroPrice(ctx, c.custody, tokenAddr, c.cfg.Quote, c.cfg.TokenSupply, c.cfg.BootstrapRate); err != nil {
		return fmt.Errorf("seed pool: %w", err)
	}
	c.setState(rec, StateTradingBootstrap)

	c.emitter.Emit(event.NamePoolCreated, event.PoolCreatedData{
		Pair:            rec.Pair.Hex(),
		AssetA:          tokenAddr.Hex(),
		AssetB:          c.cfg.Quote.Hex(),
		ZeroPriceActive: true,
	})
	return nil
}

// CreateTokenAndPool deploys a token and opens its bootstrap pool in one
// call, the common launch path.
func (c *Controller) CreateTokenAndPool(ctx context.Context, creator common.Address, name, symbol string) (common.Address, error) {
	tokenAddr, err := c.CreateToken(ctx, creator, name, symbol)
	if err != nil {
		return common.Address{}, err
	}
	if err := c.SeedPool(ctx, creator, tokenAddr); err != nil {
		return common.Address{}, err
	}
	return tokenAddr, nil
}

// Info returns a copy of the launch record.
func (c *Controller) Info(tokenAddr common.Address) (Launch, error) {
	rec, err := c.launch(tokenAddr)
	if err != nil {
		return Launch{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *rec, nil
}

// TokenPriceUSD returns the token's spot price in 8-decimal USD.
func (c *Controller) TokenPriceUSD(ctx context.Context, tokenAddr common.Address) (*big.Int, error) {
	rec, err := c.launch(tokenAddr)
	if err != nil {
		return nil, err
	}
	return c.priceUSD(ctx, rec)
}

// MarketCapUSD returns the token's fully-diluted market cap in 8-decimal USD.
func (c *Controller) MarketCapUSD(ctx context.Context, tokenAddr common.Address) (*big.Int, error) {
	rec, err := c.launch(tokenAddr)
	if err != nil {
		return nil, err
	}
	return c.marketCapUSD(ctx, rec)
}

// Progress returns how far the token's market cap has moved toward the
// migration threshold, as a 0-100 percentage.
func (c *Controller) Progress(ctx context.Context, tokenAddr common.Address) (uint8, error) {
	rec, err := c.launch(tokenAddr)
	if err != nil {
		return 0, err
	}
	if c.state(rec) == StateMigrated {
		return 100, nil
	}
	mcap, err := c.marketCapUSD(ctx, rec)
	if err != nil {
		return 0, err
	}
	return pricing.BondingProgress(mcap, c.cfg.MigrationThresholdUSD), nil
}

func (c *Controller) launch(tokenAddr common.Address) (*Launch, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.tokens[tokenAddr]
	if !ok {
		return nil, ErrUnknownToken
	}
	return rec, nil
}

func (c *Controller) state(rec *Launch) State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return rec.State
}

func (c *Controller) setState(rec *Launch, to State) {
	c.mu.Lock()
	from := rec.State
	if !canTransition(from, to) {
		c.mu.Unlock()
		c.logger.Error("refused launch state transition",
			zap.String("token", rec.Token.Hex()),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
		return
	}
	rec.State = to
	c.mu.Unlock()

	c.logger.Info("launch state changed",
		zap.String("token", rec.Token.Hex()),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
	c.emitter.Emit(event.NameLaunchStateChanged, event.LaunchStateChangedData{
		Token: rec.Token.Hex(),
		From:  from.String(),
		To:    to.String(),
	})
}

// priceInQuote returns the fixed-point price of the token in quote units.
// Bootstrap pools price at the inverse of the bootstrap rate.
func (c *Controller) priceInQuote(rec *Launch) (*uint256.Int, error) {
	view, err := c.ledger.PoolState(rec.Token, c.cfg.Quote)
	if err != nil {
		return nil, err
	}
	if view.ZeroPriceActive {
		scaled := new(uint256.Int).Mul(amm.Precision, amm.Precision)
		return scaled.Div(scaled, view.BootstrapRate), nil
	}
	priceInQuote, _, err := c.ledger.SpotPrice(rec.Token, c.cfg.Quote)
	return priceInQuote, err
}

func (c *Controller) priceUSD(ctx context.Context, rec *Launch) (*big.Int, error) {
	priceInQuote, err := c.priceInQuote(rec)
	if err != nil {
		return nil, err
	}
	oraclePrice, decimals, updatedAt, err := c.oracle.LatestPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("oracle price: %w", err)
	}
	if err := pricing.CheckFreshness(updatedAt, c.cfg.OracleMaxAge, c.now()); err != nil {
		return nil, err
	}
	return pricing.TokenPriceUSD(priceInQuote.ToBig(), oraclePrice, decimals)
}

func (c *Controller) marketCapUSD(ctx context.Context, rec *Launch) (*big.Int, error) {
	priceUSD, err := c.priceUSD(ctx, rec)
	if err != nil {
		return nil, err
	}
	asset, ok := c.assets.Asset(rec.Token)
	if !ok {
		return nil, ErrUnknownToken
	}
	return pricing.MarketCapUSD(priceUSD, asset.TotalSupply().ToBig())
}

func (c *Controller) asset(addr common.Address) (token.Asset, error) {
	a, ok := c.assets.Asset(addr)
	if !ok {
		return nil, fmt.Errorf("unknown asset %s", addr.Hex())
	}
	return a, nil
}
