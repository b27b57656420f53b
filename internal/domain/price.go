package domain

import "math"

// minPrice floors rounded prices so rounding alone can never produce a
// non-positive price.
const minPrice = 1e-10

// RoundToTick snaps price to the nearest multiple of tick. The result is
// re-rounded to 4 decimal places to absorb float artifacts.
func RoundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	p := math.Round(price/tick) * tick
	p = math.Round(p*1e4) / 1e4
	if p < minPrice {
		p = minPrice
	}
	return p
}
