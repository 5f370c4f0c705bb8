package listing

import (
	"math"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
)

// pricePoint positions the derived listing price within the valuation
// range. The constant is carried over from earlier product versions for
// behavioral parity.
const pricePoint = 0.6

// DerivePrice derives a listing price 60% of the way from the low to the
// high valuation estimate, rounded to whole currency units. Returns
// ok=false when there is no estimate yet (low == high == 0), in which case
// no price should be displayed or derived.
func DerivePrice(v catalog.Valuation) (float64, bool) {
	if v.Low == 0 && v.High == 0 {
		return 0, false
	}
	price := v.Low + pricePoint*(v.High-v.Low)
	return math.Round(price), true
}
