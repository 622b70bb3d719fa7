package pricing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/YePeX420/Hedge-Ledger-NPC-dfk-sub003/internal/model"
)

// Graph maps token addresses to USD prices, anchored at a stable reference
// token with price 1.0. Prices are exact big.Rat values; conversion to
// float happens only at the display boundary.
type Graph struct {
	anchor   common.Address
	prices   map[common.Address]*big.Rat
	decimals map[common.Address]uint8
	symbols  map[common.Address]string
}

// BuildGraph derives a token price map by breadth-first traversal of the
// pair set, starting from the anchor. A token reachable through several
// paths keeps the price found at its shortest BFS distance; ties resolve in
// pair enumeration order. Cycles are safe because each token is priced at
// most once.
//
// The exchange-rate direction matters: price(U) = price(T) * rT/rU with
// decimal-adjusted reserves, because more U per unit of T means U is the
// cheaper asset.
func BuildGraph(pairs []model.PairInfo, anchor common.Address) *Graph {
	g := &Graph{
		anchor:   anchor,
		prices:   make(map[common.Address]*big.Rat),
		decimals: make(map[common.Address]uint8),
		symbols:  make(map[common.Address]string),
	}

	adjacency := make(map[common.Address][]int)
	for i, p := range pairs {
		g.decimals[p.Token0] = p.Token0Meta.Decimals
		g.decimals[p.Token1] = p.Token1Meta.Decimals
		g.symbols[p.Token0] = p.Token0Meta.Symbol
		g.symbols[p.Token1] = p.Token1Meta.Symbol
		adjacency[p.Token0] = append(adjacency[p.Token0], i)
		adjacency[p.Token1] = append(adjacency[p.Token1], i)
	}

	g.prices[anchor] = big.NewRat(1, 1)
	queue := []common.Address{anchor}

	for len(queue) > 0 {
		token := queue[0]
		queue = queue[1:]
		priceT := g.prices[token]

		for _, idx := range adjacency[token] {
			p := pairs[idx]
			counter := p.CounterToken(token)
			if _, priced := g.prices[counter]; priced {
				continue
			}

			reserveT, reserveU := p.Reserve0, p.Reserve1
			if p.Token1 == token {
				reserveT, reserveU = p.Reserve1, p.Reserve0
			}
			if reserveT == nil || reserveU == nil || reserveT.Sign() == 0 || reserveU.Sign() == 0 {
				continue
			}

			adjT := adjustedReserve(reserveT, g.decimals[token])
			adjU := adjustedReserve(reserveU, g.decimals[counter])
			if adjU.Sign() == 0 {
				continue
			}

			rate := new(big.Rat).Quo(adjT, adjU)
			g.prices[counter] = new(big.Rat).Mul(priceT, rate)
			queue = append(queue, counter)
		}
	}

	return g
}

func adjustedReserve(raw *big.Int, decimals uint8) *big.Rat {
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Rat).SetFrac(new(big.Int).Set(raw), denom)
}

// Anchor returns the reference token the graph was built from.
func (g *Graph) Anchor() common.Address { return g.anchor }

// Price returns a token's USD price, if the BFS reached it.
func (g *Graph) Price(token common.Address) (*big.Rat, bool) {
	price, ok := g.prices[token]
	if !ok {
		return nil, false
	}
	return new(big.Rat).Set(price), true
}

// USDValue converts a raw token amount to USD through the graph price and
// the token's decimals. Unreached tokens yield an UnpricedTokenError; the
// value is never silently zero.
func (g *Graph) USDValue(token common.Address, raw *big.Int) (*big.Rat, error) {
	price, ok := g.prices[token]
	if !ok {
		return nil, &model.UnpricedTokenError{Token: token}
	}
	amount := adjustedReserve(raw, g.decimals[token])
	return new(big.Rat).Mul(amount, price), nil
}

// Decimals returns the decimals recorded for a token during enumeration.
func (g *Graph) Decimals(token common.Address) (uint8, bool) {
	d, ok := g.decimals[token]
	return d, ok
}

// Float64Prices renders the whole price map as floats for display output.
func (g *Graph) Float64Prices() map[common.Address]float64 {
	out := make(map[common.Address]float64, len(g.prices))
	for token, price := range g.prices {
		v, _ := price.Float64()
		out[token] = v
	}
	return out
}

// Len reports how many tokens received a price.
func (g *Graph) Len() int { return len(g.prices) }
