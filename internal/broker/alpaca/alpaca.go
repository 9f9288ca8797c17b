package alpaca

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"llm-trader/internal/interfaces"
	"llm-trader/internal/types"
)

type Params struct {
	BaseURL   string // paper or live host
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// Alpaca submits market orders against the Alpaca REST API. It is a
// best-effort mirror of the paper book; callers treat failures as local.
type Alpaca struct {
	client *resty.Client
}

var _ interfaces.Broker = (*Alpaca)(nil)

func New(p Params) *Alpaca {
	client := resty.New().
		SetBaseURL(p.BaseURL).
		SetHeader("APCA-API-KEY-ID", p.APIKey).
		SetHeader("APCA-API-SECRET-KEY", p.APISecret).
		SetHeader("Content-Type", "application/json")
	if p.Timeout > 0 {
		client.SetTimeout(p.Timeout)
	}
	return &Alpaca{client: client}
}

func (a *Alpaca) SubmitOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	body := map[string]any{
		"symbol":        req.Symbol,
		"qty":           strconv.Itoa(req.Qty),
		"side":          req.Side,
		"type":          "market",
		"time_in_force": "gtc",
	}

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/v2/orders")
	if err != nil {
		return types.OrderResp{}, err
	}
	if resp.IsError() {
		return types.OrderResp{}, fmt.Errorf("alpaca http %d: %s", resp.StatusCode(), resp.String())
	}
	return types.OrderResp{OrderID: out.ID, Status: out.Status}, nil
}
