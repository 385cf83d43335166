package booking

import (
	"fmt"

	"wellmeet/internal/models"
)

// Pricing holds the per-person course price.
type Pricing struct {
	AdultPrice int64
	ChildPrice int64
}

func DefaultPricing() Pricing {
	return Pricing{AdultPrice: models.DefaultAdultPrice, ChildPrice: models.DefaultChildPrice}
}

// Estimate is exact integer arithmetic, no rounding.
func (p Pricing) Estimate(adults, children int) int64 {
	return int64(adults)*p.AdultPrice + int64(children)*p.ChildPrice
}

// CostLine is one row of the cost breakdown shown under the party counter.
type CostLine struct {
	Label    string
	Count    int
	Unit     int64
	Subtotal int64
}

func (l CostLine) String() string {
	return fmt.Sprintf("%s %d명 × %s원 = %s원", l.Label, l.Count, FormatWon(l.Unit), FormatWon(l.Subtotal))
}

func (p Pricing) Breakdown(adults, children int) []CostLine {
	lines := []CostLine{{Label: "성인", Count: adults, Unit: p.AdultPrice, Subtotal: int64(adults) * p.AdultPrice}}
	if children > 0 {
		lines = append(lines, CostLine{Label: "어린이", Count: children, Unit: p.ChildPrice, Subtotal: int64(children) * p.ChildPrice})
	}
	return lines
}

// FormatWon renders 375000 as "375,000".
func FormatWon(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%d", v)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
