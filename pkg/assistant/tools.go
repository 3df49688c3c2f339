package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tacolabs/hungry-agent/pkg/batch"
	"github.com/tacolabs/hungry-agent/pkg/mcp"
	"github.com/tacolabs/hungry-agent/pkg/orders"
)

// ToolsConfig holds dependencies for the ordering tools.
type ToolsConfig struct {
	// TacoSearch is the fast database-backed restaurant search server.
	TacoSearch mcp.Caller

	// UberEats is the browser-automation order fulfillment server.
	UberEats mcp.Caller

	// Batch fans out multi-restaurant orders.
	Batch *batch.Coordinator

	// Store resolves order status lookups.
	Store orders.Store

	// DeliveryAddress is used when the user does not give one.
	DeliveryAddress string
}

// OrderingTools returns all tools available to the assistant.
func OrderingTools(cfg ToolsConfig) []Tool {
	return []Tool{
		{
			Name:        "search_restaurants",
			Description: "Search for taco restaurants on Uber Eats using fast database lookup",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search query (e.g., 'tacos', 'Mexican food', restaurant name, or Austin area)",
					},
				},
				"required": []string{"query"},
			},
			Handler: func(ctx context.Context, sessionID string, args map[string]interface{}) (string, error) {
				return cfg.TacoSearch.CallTool(ctx, "search_tacos", map[string]any{
					"query": argString(args, "query", ""),
					"limit": 10,
				})
			},
		},
		{
			Name:        "get_restaurant_details",
			Description: "Get detailed information about a specific taco restaurant including hours, reviews, and best items",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"restaurant_name": map[string]interface{}{
						"type":        "string",
						"description": "Name of the restaurant to get details for",
					},
				},
				"required": []string{"restaurant_name"},
			},
			Handler: func(ctx context.Context, sessionID string, args map[string]interface{}) (string, error) {
				return cfg.TacoSearch.CallTool(ctx, "get_restaurant_details", map[string]any{
					"restaurant_name": argString(args, "restaurant_name", ""),
				})
			},
		},
		{
			Name:        "get_top_rated_tacos",
			Description: "Get the top-rated taco restaurants in Austin with high ratings and reviews",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Number of top restaurants to return (default: 5)",
						"minimum":     1,
						"maximum":     10,
					},
				},
			},
			Handler: func(ctx context.Context, sessionID string, args map[string]interface{}) (string, error) {
				return cfg.TacoSearch.CallTool(ctx, "get_top_rated_tacos", map[string]any{
					"limit": argInt(args, "limit", 5),
				})
			},
		},
		{
			Name:        "search_by_area",
			Description: "Search for taco restaurants in a specific Austin area or neighborhood",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"area": map[string]interface{}{
						"type":        "string",
						"description": "Austin area, neighborhood, or street name (e.g., 'downtown', 'south austin', 'lamar')",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of results (default: 8)",
						"minimum":     1,
						"maximum":     15,
					},
				},
				"required": []string{"area"},
			},
			Handler: func(ctx context.Context, sessionID string, args map[string]interface{}) (string, error) {
				return cfg.TacoSearch.CallTool(ctx, "search_by_area", map[string]any{
					"area":  argString(args, "area", ""),
					"limit": argInt(args, "limit", 8),
				})
			},
		},
		{
			Name:        "get_menu",
			Description: "Get menu items from a specific restaurant on Uber Eats",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"restaurant_id": map[string]interface{}{
						"type":        "string",
						"description": "Restaurant identifier",
					},
					"restaurant_name": map[string]interface{}{
						"type":        "string",
						"description": "Restaurant name",
					},
				},
				"required": []string{"restaurant_name"},
			},
			Handler: func(ctx context.Context, sessionID string, args map[string]interface{}) (string, error) {
				// The search database carries menu highlights per
				// restaurant, which is faster than a browser crawl.
				return cfg.TacoSearch.CallTool(ctx, "get_restaurant_details", map[string]any{
					"restaurant_name": argString(args, "restaurant_name", ""),
				})
			},
		},
		{
			Name:        "order_food",
			Description: "Place an order for specific food items from a restaurant (use after finding items with search tools)",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"restaurant_name": map[string]interface{}{
						"type":        "string",
						"description": "Name of the restaurant (from search results)",
					},
					"item_name": map[string]interface{}{
						"type":        "string",
						"description": "Name of the specific item to order (from search results)",
					},
					"quantity": map[string]interface{}{
						"type":        "integer",
						"description": "Number of items to order (default: 1)",
						"minimum":     1,
						"maximum":     10,
					},
					"item_url": map[string]interface{}{
						"type":        "string",
						"description": "Direct URL to the item (if available from search results)",
					},
					"delivery_address": map[string]interface{}{
						"type":        "string",
						"description": "Delivery address (default: Austin, TX)",
					},
				},
				"required": []string{"restaurant_name", "item_name"},
			},
			Handler: func(ctx context.Context, sessionID string, args map[string]interface{}) (string, error) {
				return cfg.UberEats.CallTool(ctx, "order_food", map[string]any{
					"restaurant_name":  argString(args, "restaurant_name", ""),
					"item_name":        argString(args, "item_name", ""),
					"quantity":         argInt(args, "quantity", 1),
					"item_url":         argString(args, "item_url", ""),
					"delivery_address": argString(args, "delivery_address", cfg.DeliveryAddress),
				})
			},
		},
		{
			Name:        "place_multiple_items_order",
			Description: "Place an order for multiple items from the same restaurant",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"restaurant_name": map[string]interface{}{
						"type":        "string",
						"description": "Name of the restaurant",
					},
					"items": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name":     map[string]interface{}{"type": "string", "description": "Item name"},
								"quantity": map[string]interface{}{"type": "integer", "minimum": 1, "description": "Quantity"},
								"item_url": map[string]interface{}{"type": "string", "description": "Direct item URL (optional)"},
							},
							"required": []string{"name", "quantity"},
						},
						"description": "List of items to order from the restaurant",
					},
					"delivery_address": map[string]interface{}{
						"type":        "string",
						"description": "Delivery address (default: Austin, TX)",
					},
				},
				"required": []string{"restaurant_name", "items"},
			},
			Handler: func(ctx context.Context, sessionID string, args map[string]interface{}) (string, error) {
				items, _ := args["items"].([]interface{})
				return cfg.UberEats.CallTool(ctx, "place_multiple_items_order", map[string]any{
					"restaurant_name":  argString(args, "restaurant_name", ""),
					"items":            items,
					"delivery_address": argString(args, "delivery_address", cfg.DeliveryAddress),
				})
			},
		},
		{
			Name:        "check_order_status",
			Description: "Check the status of an existing order on Uber Eats",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"order_id": map[string]interface{}{
						"type":        "string",
						"description": "Order ID to check",
					},
				},
				"required": []string{"order_id"},
			},
			Handler: func(ctx context.Context, sessionID string, args map[string]interface{}) (string, error) {
				orderID := argString(args, "order_id", "")
				id, err := strconv.ParseUint(orderID, 10, 64)
				if err != nil {
					return fmt.Sprintf("I couldn't find an order numbered %q.", orderID), nil
				}
				order, err := cfg.Store.GetOrder(uint(id))
				if err != nil {
					return fmt.Sprintf("I couldn't find order %s.", orderID), nil
				}
				status := strings.ReplaceAll(string(order.Status), "_", " ")
				if order.RestaurantName != "" {
					return fmt.Sprintf("Order %d from %s is %s.", order.ID, order.RestaurantName, status), nil
				}
				return fmt.Sprintf("Order %d is %s.", order.ID, status), nil
			},
		},
		{
			Name:        "create_batch_orders",
			Description: "Create multiple simultaneous orders from different restaurants on Uber Eats. Use this when the user wants to order from multiple restaurants at once.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"restaurant_queries": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "List of restaurant search queries (e.g., ['tacos', 'pizza', 'burgers'])",
					},
					"items_per_restaurant": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "string"},
						},
						"description": "List of items to order from each restaurant (e.g., [['beef tacos'], ['pepperoni pizza'], ['cheeseburger']])",
					},
					"location": map[string]interface{}{
						"type":        "string",
						"description": "Delivery location (e.g., 'Austin, TX')",
					},
				},
				"required": []string{"restaurant_queries", "items_per_restaurant", "location"},
			},
			Handler: func(ctx context.Context, sessionID string, args map[string]interface{}) (string, error) {
				queries := argStrings(args, "restaurant_queries")
				itemLists := argStringLists(args, "items_per_restaurant")
				location := argString(args, "location", "Austin, TX")

				orderIDs, err := cfg.Batch.Create(queries, itemLists, location, sessionID)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Created %d batch orders: %s. Searches take 2-3 minutes per restaurant.",
					len(orderIDs), strings.Join(orderIDs, ", ")), nil
			},
		},
	}
}

func argString(args map[string]interface{}, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// argInt handles both float64 (JSON decoding) and int values.
func argInt(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

func argStrings(args map[string]interface{}, key string) []string {
	raw, _ := args[key].([]interface{})
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argStringLists(args map[string]interface{}, key string) [][]string {
	raw, _ := args[key].([]interface{})
	out := make([][]string, 0, len(raw))
	for _, v := range raw {
		inner, _ := v.([]interface{})
		list := make([]string, 0, len(inner))
		for _, item := range inner {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		out = append(out, list)
	}
	return out
}
