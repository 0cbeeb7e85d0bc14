package deepbook

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"floorguard/internal/domain"
	"floorguard/pkg/quant"
)

// Client is the DeepBook indexer/relay REST client (boundary layer). It
// implements domain.ExchangeClient. Requests that move funds are signed with
// the loaded credential; read-only queries go out unsigned.
type Client struct {
	baseURL    string
	httpClient *http.Client
	credential domain.Credential
	logger     *slog.Logger
}

// NewClient creates a new DeepBook API client. credential may be nil for a
// read-only client.
func NewClient(baseURL string, credential domain.Credential) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		credential: credential,
		logger:     slog.Default().With("module", "deepbook_client"),
	}
}

// PlaceOrder submits a limit order from a named balance manager. The force
// flag is ioc for immediate-or-cancel requests.
func (c *Client) PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	if c.credential == nil {
		return nil, fmt.Errorf("place order: no credential loaded")
	}

	force := "gtc"
	if req.ImmediateOnly {
		force = "ioc"
	}
	side := "buy"
	if req.Side == domain.SideSell {
		side = "sell"
	}

	// Boundary conversion: fixed-point int64 -> decimal strings.
	body := placeOrderRequest{
		PoolID:         req.PoolID,
		BalanceManager: req.BalanceManager,
		CoinType:       req.CoinType,
		Side:           side,
		OrderType:      "limit",
		Force:          force,
		Price:          req.Price.Decimal().String(),
		Quantity:       req.Quantity.Tokens().String(),
		ClientOrderID:  req.ClientOrderID,
	}

	resp, err := c.doRequest(ctx, "POST", "/v1/orders", body)
	if err != nil {
		return nil, domain.NewNetworkError("place order", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepbook api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp placeOrderResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if apiResp.Code != apiCodeOK {
		return nil, fmt.Errorf("deepbook business error: code=%s msg=%s", apiResp.Code, apiResp.Msg)
	}

	result := &domain.OrderResult{
		Digest:    apiResp.Data.Digest,
		Succeeded: apiResp.Data.Status == "success",
		ErrorMsg:  apiResp.Data.Error,
	}
	for _, f := range apiResp.Data.Fills {
		result.Fills = append(result.Fills, domain.Fill{
			Price:    quant.ToPriceMicrosStr(f.Price),
			Quantity: quant.ToQtyNanosStr(f.Quantity),
			IsBid:    f.IsBid,
		})
	}

	c.logger.Info("Order submitted", "oid", req.ClientOrderID, "pool", req.PoolID, "digest", result.Digest)
	return result, nil
}

// GetPool fetches a pool's on-chain metadata.
func (c *Client) GetPool(ctx context.Context, poolID string) (*domain.PoolMeta, error) {
	resp, err := c.doRequest(ctx, "GET", "/v1/pools/"+poolID, nil)
	if err != nil {
		return nil, domain.NewNetworkError("get pool", err)
	}
	defer resp.Body.Close()

	var apiResp poolResponse
	if err := c.decode(resp, &apiResp.apiResponse, &apiResp); err != nil {
		return nil, err
	}

	return &domain.PoolMeta{
		PoolID:        apiResp.Data.PoolID,
		BaseCoinType:  apiResp.Data.BaseCoinType,
		QuoteCoinType: apiResp.Data.QuoteCoinType,
		TickSize:      apiResp.Data.TickSize,
		LotSize:       apiResp.Data.LotSize,
	}, nil
}

// GetOrderBook fetches a pool's resting-order snapshot.
func (c *Client) GetOrderBook(ctx context.Context, poolID string) (*domain.OrderBook, error) {
	resp, err := c.doRequest(ctx, "GET", "/v1/pools/"+poolID+"/orderbook", nil)
	if err != nil {
		return nil, domain.NewNetworkError("get order book", err)
	}
	defer resp.Body.Close()

	var apiResp orderBookResponse
	if err := c.decode(resp, &apiResp.apiResponse, &apiResp); err != nil {
		return nil, err
	}

	book := &domain.OrderBook{PoolID: poolID}
	for _, lvl := range apiResp.Data.Bids {
		book.Bids = append(book.Bids, domain.OrderBookLevel{
			Price:    quant.ToPriceMicrosStr(lvl[0]),
			Quantity: quant.ToQtyNanosStr(lvl[1]),
		})
	}
	for _, lvl := range apiResp.Data.Asks {
		book.Asks = append(book.Asks, domain.OrderBookLevel{
			Price:    quant.ToPriceMicrosStr(lvl[0]),
			Quantity: quant.ToQtyNanosStr(lvl[1]),
		})
	}
	return book, nil
}

// GetBalances fetches the coin balances held by a balance manager.
func (c *Client) GetBalances(ctx context.Context, balanceManager string) (map[string]domain.QtyBalance, error) {
	resp, err := c.doRequest(ctx, "GET", "/v1/balances/"+balanceManager, nil)
	if err != nil {
		return nil, domain.NewNetworkError("get balances", err)
	}
	defer resp.Body.Close()

	var apiResp balancesResponse
	if err := c.decode(resp, &apiResp.apiResponse, &apiResp); err != nil {
		return nil, err
	}

	balances := make(map[string]domain.QtyBalance, len(apiResp.Data))
	for _, b := range apiResp.Data {
		balances[b.CoinType] = domain.QtyBalance{CoinType: b.CoinType, Raw: b.Balance}
	}
	return balances, nil
}

// QueryFills fetches recent historical fills for a pool.
func (c *Client) QueryFills(ctx context.Context, poolID string, limit int) ([]domain.Fill, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/v1/pools/%s/fills?limit=%d", poolID, limit), nil)
	if err != nil {
		return nil, domain.NewNetworkError("query fills", err)
	}
	defer resp.Body.Close()

	var apiResp fillsResponse
	if err := c.decode(resp, &apiResp.apiResponse, &apiResp); err != nil {
		return nil, err
	}

	fills := make([]domain.Fill, 0, len(apiResp.Data))
	for _, f := range apiResp.Data {
		fills = append(fills, domain.Fill{
			Price:    quant.ToPriceMicrosStr(f.Price),
			Quantity: quant.ToQtyNanosStr(f.Quantity),
			IsBid:    f.IsBid,
		})
	}
	return fills, nil
}

// doRequest handles serialization and, when a credential is loaded, the
// signature headers.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	var bodyStr string

	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBytes)
		bodyStr = string(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.credential != nil {
		timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())
		payload := timestamp + method + path + bodyStr
		sig := c.credential.Sign([]byte(payload))

		req.Header.Set("X-Address", c.credential.Address())
		req.Header.Set("X-Timestamp", timestamp)
		req.Header.Set("X-Signature", base64.StdEncoding.EncodeToString(sig))
	}

	return c.httpClient.Do(req)
}

// decode reads a response body into out and checks status and envelope code.
func (c *Client) decode(resp *http.Response, envelope *apiResponse, out interface{}) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deepbook api error: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if envelope.Code != apiCodeOK {
		return fmt.Errorf("deepbook business error: code=%s msg=%s", envelope.Code, envelope.Msg)
	}
	return nil
}
