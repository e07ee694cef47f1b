package game

import "math/rand"

// ShouldBuy is the computer opponent's purchase policy: cheap properties
// are usually taken, expensive ones depend on how much of the balance
// would survive the purchase. The engine pre-validates its inputs, so
// there is no error path here.
func ShouldBuy(money, price int, rng *rand.Rand) bool {
	if money < price {
		return false
	}
	var p float64
	switch {
	case price < 150:
		p = 0.8
	default:
		ratio := float64(money-price) / float64(money)
		switch {
		case ratio > 0.5:
			p = 0.7
		case ratio > 0.3:
			p = 0.5
		default:
			p = 0.3
		}
	}
	return rng.Float64() < p
}
