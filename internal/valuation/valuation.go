// Package valuation computes portfolio values from positions and live
// prices. Everything here is pure; callers supply the price map.
package valuation

import "sort"

// Position is one acquisition lot: quantity bought at a unit cost.
type Position struct {
	Symbol        string
	Quantity      float64
	PricePerShare float64
}

// SymbolValuation aggregates all lots of one symbol.
type SymbolValuation struct {
	Symbol              string  `json:"symbol"`
	TotalQuantity       float64 `json:"totalQuantity"`
	TotalCostBasis      float64 `json:"totalCostBasis"`
	WeightedAvgCost     float64 `json:"weightedAvgCost"`
	CurrentValue        float64 `json:"currentValue"`
	UnrealizedPL        float64 `json:"unrealizedPl"`
	UnrealizedPLPercent float64 `json:"unrealizedPlPercent"`
	HasPrice            bool    `json:"hasPrice"`
}

// PortfolioValuation is the wallet-level rollup of per-symbol valuations.
type PortfolioValuation struct {
	Symbols           []SymbolValuation `json:"symbols"`
	TotalCostBasis    float64           `json:"totalCostBasis"`
	TotalCurrentValue float64           `json:"totalCurrentValue"`
	TotalPL           float64           `json:"totalPl"`
	TotalPLPercent    float64           `json:"totalPlPercent"`
	HasAnyPrice       bool              `json:"hasAnyPrice"`
	PositionCount     int               `json:"positionCount"`
	UniqueSymbols     int               `json:"uniqueSymbols"`
}

// Valuate groups positions by symbol and values each group against the
// price map. A symbol with no live price is valued at its cost basis so
// that a dead feed reads as "no change" instead of a wiped-out portfolio;
// such symbols do not count toward HasAnyPrice.
func Valuate(positions []Position, prices map[string]float64) PortfolioValuation {
	type group struct {
		quantity  float64
		costBasis float64
	}
	groups := make(map[string]*group)
	order := make([]string, 0)
	for _, pos := range positions {
		g, ok := groups[pos.Symbol]
		if !ok {
			g = &group{}
			groups[pos.Symbol] = g
			order = append(order, pos.Symbol)
		}
		g.quantity += pos.Quantity
		g.costBasis += pos.Quantity * pos.PricePerShare
	}
	sort.Strings(order)

	out := PortfolioValuation{
		Symbols:       make([]SymbolValuation, 0, len(order)),
		PositionCount: len(positions),
		UniqueSymbols: len(order),
	}

	for _, symbol := range order {
		g := groups[symbol]
		sv := SymbolValuation{
			Symbol:         symbol,
			TotalQuantity:  g.quantity,
			TotalCostBasis: g.costBasis,
		}
		if g.quantity != 0 {
			sv.WeightedAvgCost = g.costBasis / g.quantity
		}

		price, ok := prices[symbol]
		if ok {
			sv.HasPrice = true
			sv.CurrentValue = price * g.quantity
		} else {
			sv.CurrentValue = g.costBasis
		}
		sv.UnrealizedPL = sv.CurrentValue - sv.TotalCostBasis
		if sv.HasPrice && sv.TotalCostBasis != 0 {
			sv.UnrealizedPLPercent = sv.UnrealizedPL / sv.TotalCostBasis * 100
		}

		out.Symbols = append(out.Symbols, sv)
		out.TotalCostBasis += sv.TotalCostBasis
		out.TotalCurrentValue += sv.CurrentValue
		if sv.HasPrice {
			out.HasAnyPrice = true
		}
	}

	out.TotalPL = out.TotalCurrentValue - out.TotalCostBasis
	if out.HasAnyPrice && out.TotalCostBasis != 0 {
		out.TotalPLPercent = out.TotalPL / out.TotalCostBasis * 100
	}

	return out
}
