package deepbook

import "time"

const (
	maxRetries   = 10
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
)

// subscribeRequest structure
type subscribeRequest struct {
	Op   string         `json:"op"`
	Args []subscribeArg `json:"args"`
}

type subscribeArg struct {
	Channel string `json:"channel"`
	PoolID  string `json:"poolId"`
}

// streamMessage is the envelope of every WS frame.
type streamMessage struct {
	Arg  subscribeArg     `json:"arg"`
	Data []orderEventData `json:"data"`
	Ts   int64            `json:"ts"` // milliseconds
}

// orderEventData is one order-lifecycle record on the stream. Prices and
// quantities arrive as decimal strings; side is the maker side for placed
// orders and the taker side for fills.
type orderEventData struct {
	EventType string `json:"eventType"` // placed, filled, expired
	PoolID    string `json:"poolId"`
	OrderID   string `json:"orderId"`
	Price     string `json:"price"`
	Quantity  string `json:"quantity"`
	IsBid     bool   `json:"isBid"`
}

// REST envelope shared by all endpoints.
type apiResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

const apiCodeOK = "0"

// placeOrderRequest - internal struct for JSON marshaling
type placeOrderRequest struct {
	PoolID         string `json:"poolId"`
	BalanceManager string `json:"balanceManagerId"`
	CoinType       string `json:"coinType"`
	Side           string `json:"side"`      // buy, sell
	OrderType      string `json:"orderType"` // limit
	Force          string `json:"force"`     // ioc, gtc
	Price          string `json:"price"`
	Quantity       string `json:"quantity"`
	ClientOrderID  string `json:"clientOid"`
}

type placeOrderResponse struct {
	apiResponse
	Data struct {
		Digest string     `json:"digest"`
		Status string     `json:"status"` // success, failure
		Error  string     `json:"error"`
		Fills  []fillData `json:"fills"`
	} `json:"data"`
}

type fillData struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	IsBid    bool   `json:"isBid"`
}

type poolResponse struct {
	apiResponse
	Data struct {
		PoolID        string `json:"poolId"`
		BaseCoinType  string `json:"baseCoinType"`
		QuoteCoinType string `json:"quoteCoinType"`
		TickSize      int64  `json:"tickSize"`
		LotSize       int64  `json:"lotSize"`
	} `json:"data"`
}

type orderBookResponse struct {
	apiResponse
	Data struct {
		PoolID string      `json:"poolId"`
		Bids   [][2]string `json:"bids"` // [price, quantity]
		Asks   [][2]string `json:"asks"`
	} `json:"data"`
}

type balancesResponse struct {
	apiResponse
	Data []struct {
		CoinType string `json:"coinType"`
		Balance  int64  `json:"balance"`
	} `json:"data"`
}

type fillsResponse struct {
	apiResponse
	Data []fillData `json:"data"`
}
