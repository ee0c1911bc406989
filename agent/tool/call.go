package tool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"strings"

	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
)

// Call is one validated tool invocation. The set of implementations is closed.
type Call interface {
	ToolName() string
	isCall()
}

type CheckCurrentTime struct{}

type GetMenuInfo struct {
	Query string
}

type CheckStoreHours struct{}

type AddToOrder struct {
	ItemName string
	Quantity int
}

type GetCurrentOrderSummary struct{}

type FinalizeOrder struct {
	CustomerName string
	Email        string
	Address      string
	Phone        string
}

func (CheckCurrentTime) ToolName() string       { return ToolCheckCurrentTime }
func (GetMenuInfo) ToolName() string            { return ToolGetMenuInfo }
func (CheckStoreHours) ToolName() string        { return ToolCheckStoreHours }
func (AddToOrder) ToolName() string             { return ToolAddToOrder }
func (GetCurrentOrderSummary) ToolName() string { return ToolGetCurrentOrderSummary }
func (FinalizeOrder) ToolName() string          { return ToolFinalizeOrder }

func (CheckCurrentTime) isCall()       {}
func (GetMenuInfo) isCall()            {}
func (CheckStoreHours) isCall()        {}
func (AddToOrder) isCall()             {}
func (GetCurrentOrderSummary) isCall() {}
func (FinalizeOrder) isCall()          {}

// Parse validates raw JSON arguments for the named tool. Every failure wraps
// contract.ErrValidation.
func Parse(name, rawArgs string) (Call, error) {
	args, err := decodeArgs(rawArgs)
	if err != nil {
		return nil, err
	}

	switch strings.TrimSpace(name) {
	case ToolCheckCurrentTime:
		return CheckCurrentTime{}, nil
	case ToolCheckStoreHours:
		return CheckStoreHours{}, nil
	case ToolGetCurrentOrderSummary:
		return GetCurrentOrderSummary{}, nil
	case ToolGetMenuInfo:
		q, err := requiredString(args, "query")
		if err != nil {
			return nil, err
		}
		return GetMenuInfo{Query: q}, nil
	case ToolAddToOrder:
		item, err := requiredString(args, "item_name")
		if err != nil {
			return nil, err
		}
		qty, err := positiveInt(args, "quantity")
		if err != nil {
			return nil, err
		}
		return AddToOrder{ItemName: item, Quantity: qty}, nil
	case ToolFinalizeOrder:
		var out FinalizeOrder
		fields := []struct {
			key string
			dst *string
		}{
			{"customer_name", &out.CustomerName},
			{"email", &out.Email},
			{"address", &out.Address},
			{"phone", &out.Phone},
		}
		for _, f := range fields {
			v, err := requiredString(args, f.key)
			if err != nil {
				return nil, err
			}
			*f.dst = v
		}
		if _, err := mail.ParseAddress(out.Email); err != nil {
			return nil, fmt.Errorf("%w: email %q is not a valid address", contractx.ErrValidation, out.Email)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown tool %q", contractx.ErrValidation, name)
	}
}

func decodeArgs(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return map[string]any{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON object: %v", contractx.ErrValidation, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func requiredString(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %s is required", contractx.ErrValidation, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", contractx.ErrValidation, key)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s must not be empty", contractx.ErrValidation, key)
	}
	return s, nil
}

// positiveInt accepts JSON numbers with no fractional part, and numeric
// strings, since models sometimes quote integers.
func positiveInt(args map[string]any, key string) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("%w: %s is required", contractx.ErrValidation, key)
	}

	var num json.Number
	switch v := raw.(type) {
	case json.Number:
		num = v
	case string:
		num = json.Number(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("%w: %s must be an integer", contractx.ErrValidation, key)
	}

	f, err := num.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be an integer, got %s", contractx.ErrValidation, key, num)
	}
	if f <= 0 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %s", contractx.ErrValidation, key, num)
	}
	return int(f), nil
}
