package event

import "encoding/json"

// Names of emitted engine events.
const (
	NameTokenCreated       = "TokenCreated"
	NamePoolCreated        = "PoolCreated"
	NameLiquidityAdded     = "LiquidityAdded"
	NameLiquidityRemoved   = "LiquidityRemoved"
	NameTradeExecuted      = "TradeExecuted"
	NameLiquidityMigrated  = "LiquidityMigrated"
	NameFeesCollected      = "FeesCollected"
	NameFeesWithdrawn      = "FeesWithdrawn"
	NameLaunchStateChanged = "LaunchStateChanged"
)

// Event is the envelope written to sinks. Amounts inside payloads are
// decimal strings so consumers never lose precision to float decoding.
type Event struct {
	Sequence  uint64      `json:"sequence"`
	Timestamp int64       `json:"timestamp"`
	Name      string      `json:"name"`
	Payload   interface{} `json:"payload"`
}

// Record is the replay-side representation with the payload left raw.
type Record struct {
	Sequence  uint64          `json:"sequence"`
	Timestamp int64           `json:"timestamp"`
	Name      string          `json:"name"`
	Payload   json.RawMessage `json:"payload"`
}

// TokenCreatedData reports a newly deployed launch token.
type TokenCreatedData struct {
	Token       string `json:"token"`
	Name        string `json:"token_name"`
	Symbol      string `json:"symbol"`
	Creator     string `json:"creator"`
	TotalSupply string `json:"total_supply"`
}

// PoolCreatedData reports a newly created internal pool.
type PoolCreatedData struct {
	Pair            string `json:"pair"`
	AssetA          string `json:"asset_a"`
	AssetB          string `json:"asset_b"`
	ZeroPriceActive bool   `json:"zero_price_active"`
}

// LiquidityAddedData reports a deposit into an internal pool.
type LiquidityAddedData struct {
	Pair    string `json:"pair"`
	Owner   string `json:"owner"`
	AmountA string `json:"amount_a"`
	AmountB string `json:"amount_b"`
	Shares  string `json:"shares"`
}

// LiquidityRemovedData reports a withdrawal from an internal pool.
type LiquidityRemovedData struct {
	Pair    string `json:"pair"`
	Owner   string `json:"owner"`
	AmountA string `json:"amount_a"`
	AmountB string `json:"amount_b"`
	Shares  string `json:"shares"`
}

// TradeExecutedData reports a swap against an internal pool.
type TradeExecutedData struct {
	Pair      string `json:"pair"`
	Trader    string `json:"trader"`
	AssetIn   string `json:"asset_in"`
	AssetOut  string `json:"asset_out"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
	Bootstrap bool   `json:"bootstrap"`
}

// LiquidityMigratedData reports a migration to the external venue.
type LiquidityMigratedData struct {
	Token       string `json:"token"`
	Pair        string `json:"pair"`
	PoolAddress string `json:"pool_address"`
	PositionID  uint64 `json:"position_id"`
	AmountA     string `json:"amount_a"`
	AmountB     string `json:"amount_b"`
	Liquidity   string `json:"liquidity"`
}

// FeesCollectedData reports fees claimed from a venue position.
type FeesCollectedData struct {
	PositionID uint64 `json:"position_id"`
	AmountA    string `json:"amount_a"`
	AmountB    string `json:"amount_b"`
}

// FeesWithdrawnData reports a fee payout split between creator and protocol.
type FeesWithdrawnData struct {
	Token           string `json:"token"`
	Creator         string `json:"creator"`
	CreatorAmountA  string `json:"creator_amount_a"`
	CreatorAmountB  string `json:"creator_amount_b"`
	ProtocolAmountA string `json:"protocol_amount_a"`
	ProtocolAmountB string `json:"protocol_amount_b"`
}

// LaunchStateChangedData reports a launch lifecycle transition.
type LaunchStateChangedData struct {
	Token string `json:"token"`
	From  string `json:"from"`
	To    string `json:"to"`
}
