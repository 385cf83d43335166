package recommend

import (
	"context"
	"strings"

	"wellmeet/internal/models"
)

// Quick-reply buckets offered by the fixed dialog.
var (
	PartySizeBuckets = []string{"2명", "3명", "4명", "5명 이상"}
	BudgetBuckets    = []string{"8-12만원", "12-20만원", "20-30만원", "30만원 이상"}
)

// Catalog holds the stocked candidates for each party-size/budget pair.
type Catalog struct {
	restaurants map[string]models.Candidate
	order       []string
	stock       map[string][]string
	byIntent    map[Intent][]string
}

// CatalogEntry stocks an ordered list of restaurant IDs for one bucket pair.
type CatalogEntry struct {
	PartySize string
	Budget    string
	IDs       []string
}

func NewCatalog(restaurants []models.Candidate, entries []CatalogEntry) *Catalog {
	c := &Catalog{
		restaurants: make(map[string]models.Candidate, len(restaurants)),
		stock:       make(map[string][]string, len(entries)),
		byIntent:    make(map[Intent][]string),
	}
	for _, r := range restaurants {
		if _, ok := c.restaurants[r.ID]; !ok {
			c.order = append(c.order, r.ID)
		}
		c.restaurants[r.ID] = r
	}
	for _, e := range entries {
		key := bucketKey(e.PartySize, e.Budget)
		c.stock[key] = append(c.stock[key], e.IDs...)
	}
	return c
}

// Lookup returns the stocked candidates for the answers' bucket pair in the
// order they were stocked. Unknown pairs yield an empty slice.
func (c *Catalog) Lookup(slots models.SlotAnswers) []models.Candidate {
	ids := c.stock[bucketKey(slots.PartySize, slots.Budget)]
	out := make([]models.Candidate, 0, len(ids))
	for _, id := range ids {
		if r, ok := c.restaurants[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// StockIntent ranks restaurants for a free-text intent.
func (c *Catalog) StockIntent(intent Intent, ids ...string) {
	c.byIntent[intent] = append(c.byIntent[intent], ids...)
}

// Search answers a free-text query locally: restaurants stocked for the
// detected intent first, then any restaurant whose fields mention a word of
// the query.
func (c *Catalog) Search(text string) []models.Candidate {
	seen := make(map[string]bool)
	out := []models.Candidate{}
	add := func(id string) {
		if r, ok := c.restaurants[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, r)
		}
	}

	for _, id := range c.byIntent[DetectIntent(text)] {
		add(id)
	}

	words := strings.Fields(strings.ToLower(text))
	for _, id := range c.order {
		r := c.restaurants[id]
		haystack := strings.ToLower(strings.Join([]string{r.Name, r.Category, r.Location, r.Rationale}, " "))
		for _, w := range words {
			if len([]rune(w)) >= 2 && strings.Contains(haystack, w) {
				add(id)
				break
			}
		}
	}
	return out
}

func bucketKey(partySize, budget string) string {
	return normalizeBucket(partySize) + "|" + normalizeBucket(budget)
}

func normalizeBucket(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DefaultCatalog is the built-in stock used when no remote matcher is involved.
func DefaultCatalog() *Catalog {
	restaurants := []models.Candidate{
		{
			ID: "1", Name: "라비올로", Category: "이탈리안", PriceRange: "15-20만원",
			Rating: 4.5, ReviewCount: 124, Location: "강남구 논현동", Phone: "02-1234-5678",
			Rationale: "데이트에 완벽한 로맨틱한 분위기로 유명해요",
		},
		{
			ID: "2", Name: "스시 오마카세", Category: "일식", PriceRange: "18-25만원",
			Rating: 4.7, ReviewCount: 89, Location: "청담동", Phone: "02-2345-6789",
			Rationale: "프라이빗한 공간에서 특별한 경험을 할 수 있어요",
		},
		{
			ID: "3", Name: "더 키친", Category: "프렌치", PriceRange: "16-22만원",
			Rating: 4.6, ReviewCount: 156, Location: "청담동", Phone: "02-3456-7890",
			Rationale: "특별한 날에 어울리는 고급스러운 분위기예요",
		},
		{
			ID: "4", Name: "소담 한정식", Category: "한식", PriceRange: "10-15만원",
			Rating: 4.4, ReviewCount: 212, Location: "종로구 삼청동", Phone: "02-4567-8901",
			Rationale: "룸이 있어 가족 모임에 편안해요",
		},
		{
			ID: "5", Name: "화로 숯불갈비", Category: "한식", PriceRange: "8-12만원",
			Rating: 4.3, ReviewCount: 341, Location: "마포구 연남동", Phone: "02-5678-9012",
			Rationale: "단체석이 넉넉하고 활기찬 분위기예요",
		},
		{
			ID: "6", Name: "라 메종", Category: "프렌치", PriceRange: "30-40만원",
			Rating: 4.8, ReviewCount: 67, Location: "한남동", Phone: "02-6789-0123",
			Rationale: "기념일 코스와 와인 페어링이 훌륭해요",
		},
	}

	entries := []CatalogEntry{
		{PartySize: "2명", Budget: "12-20만원", IDs: []string{"1", "2", "3"}},
		{PartySize: "2명", Budget: "20-30만원", IDs: []string{"2", "3"}},
		{PartySize: "2명", Budget: "30만원 이상", IDs: []string{"6"}},
		{PartySize: "3명", Budget: "12-20만원", IDs: []string{"1", "4"}},
		{PartySize: "4명", Budget: "8-12만원", IDs: []string{"5", "4"}},
		{PartySize: "4명", Budget: "12-20만원", IDs: []string{"4"}},
		{PartySize: "5명 이상", Budget: "8-12만원", IDs: []string{"5"}},
	}

	c := NewCatalog(restaurants, entries)
	c.StockIntent(IntentDate, "1", "2", "3")
	c.StockIntent(IntentRomantic, "1", "6")
	c.StockIntent(IntentFamily, "4", "5")
	c.StockIntent(IntentBusiness, "2", "4")
	c.StockIntent(IntentFriends, "5", "1")
	c.StockIntent(IntentLuxurious, "6", "3", "2")
	c.StockIntent(IntentQuiet, "4", "2")
	c.StockIntent(IntentLively, "5")
	c.StockIntent(IntentClassic, "3", "6")
	c.StockIntent(IntentModern, "1")
	c.StockIntent(IntentClean, "2")
	return c
}

// LocalRecommender serves free-text matching from a catalog.
type LocalRecommender struct {
	Catalog *Catalog
}

func (l LocalRecommender) Recommend(ctx context.Context, query string) ([]models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.Catalog.Search(query), nil
}
