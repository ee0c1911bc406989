package tool

import (
	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
)

const (
	ToolCheckCurrentTime       = "checkCurrentTime"
	ToolGetMenuInfo            = "getMenuInfo"
	ToolCheckStoreHours        = "checkStoreHours"
	ToolAddToOrder             = "addToOrder"
	ToolGetCurrentOrderSummary = "getCurrentOrderSummary"
	ToolFinalizeOrder          = "finalizeOrder"
)

// Specs is the fixed tool catalogue offered to the model on every round.
func Specs() []contractx.ToolSpec {
	return []contractx.ToolSpec{
		{
			Name:        ToolCheckCurrentTime,
			Description: "Check whether the restaurant is open right now. Call this before taking an order.",
		},
		{
			Name:        ToolGetMenuInfo,
			Description: "Search the menu for dishes and prices. Use 'all' to list the whole menu.",
			Params: []contractx.ParamSpec{
				{Name: "query", Type: "string", Desc: "Dish name, part of it, or 'all'.", Required: true},
			},
		},
		{
			Name:        ToolCheckStoreHours,
			Description: "Get the restaurant's opening hours.",
		},
		{
			Name:        ToolAddToOrder,
			Description: "Add a dish to the customer's order.",
			Params: []contractx.ParamSpec{
				{Name: "item_name", Type: "string", Desc: "Exact dish name from the menu.", Required: true},
				{Name: "quantity", Type: "integer", Desc: "How many to add, at least 1.", Required: true},
			},
		},
		{
			Name:        ToolGetCurrentOrderSummary,
			Description: "Get the current cart contents and the total.",
		},
		{
			Name:        ToolFinalizeOrder,
			Description: "Place the order. Use ONLY after the customer confirmed the summary and gave their details.",
			Params: []contractx.ParamSpec{
				{Name: "customer_name", Type: "string", Desc: "Full name.", Required: true},
				{Name: "email", Type: "string", Desc: "Email address for the receipt.", Required: true},
				{Name: "address", Type: "string", Desc: "Delivery address.", Required: true},
				{Name: "phone", Type: "string", Desc: "Phone number.", Required: true},
			},
		},
	}
}
