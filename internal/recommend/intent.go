package recommend

import (
	"fmt"
	"strings"
)

// Intent is the coarse reading of a free-text request.
type Intent string

const (
	IntentUnknown   Intent = "UNKNOWN"
	IntentDate      Intent = "DATE"
	IntentFamily    Intent = "FAMILY"
	IntentBusiness  Intent = "BUSINESS"
	IntentFriends   Intent = "FRIENDS"
	IntentRomantic  Intent = "ROMANTIC"
	IntentLuxurious Intent = "LUXURIOUS"
	IntentQuiet     Intent = "QUIET"
	IntentLively    Intent = "LIVELY"
	IntentClassic   Intent = "CLASSIC"
	IntentModern    Intent = "MODERN"
	IntentClean     Intent = "CLEAN"
)

type intentRule struct {
	Intent   Intent
	Keywords []string
	Headline string
}

// Occasions are listed before vibes so "조용한 데이트" reads as a date.
var intentTable = []intentRule{
	{IntentDate, []string{"데이트", "연인", "여자친구", "남자친구", "기념일", "date"}, "데이트에 완벽한"},
	{IntentFamily, []string{"가족", "부모님", "아이", "생신", "family"}, "가족 모임에 어울리는"},
	{IntentBusiness, []string{"회식", "회의", "비즈니스", "접대", "미팅", "business"}, "비즈니스 자리에 좋은"},
	{IntentFriends, []string{"친구", "동창", "모임", "friends"}, "친구들과 즐기기 좋은"},
	{IntentRomantic, []string{"로맨틱", "romantic"}, "로맨틱한 분위기의"},
	{IntentLuxurious, []string{"고급", "luxurious"}, "고급스러운"},
	{IntentQuiet, []string{"조용", "quiet"}, "조용한"},
	{IntentLively, []string{"활기", "시끌", "lively"}, "활기찬"},
	{IntentClassic, []string{"클래식", "classic"}, "클래식한"},
	{IntentModern, []string{"모던", "modern"}, "모던한"},
	{IntentClean, []string{"깔끔", "clean"}, "깔끔한"},
}

const defaultHeadline = "조건에 맞는"

// DetectIntent returns the first intent whose keyword appears in text.
func DetectIntent(text string) Intent {
	lowered := strings.ToLower(text)
	for _, rule := range intentTable {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				return rule.Intent
			}
		}
	}
	return IntentUnknown
}

// Headline renders the title of a candidate-list turn.
func Headline(intent Intent, count int) string {
	prefix := defaultHeadline
	for _, rule := range intentTable {
		if rule.Intent == intent {
			prefix = rule.Headline
			break
		}
	}
	return fmt.Sprintf("%s %d곳을 추천드려요! 🎉", prefix, count)
}
