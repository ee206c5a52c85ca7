package offer

import (
	"sort"
	"strings"
)

// Score ranks an offer against a viewer's declared service interests:
// one point for an exact service-type match plus one point per accepted
// applicant. An empty interest set scores zero. Pure and deterministic.
func Score(o ListedOffer, viewerServices []string) int {
	if len(viewerServices) == 0 {
		return 0
	}

	score := 0
	for _, service := range viewerServices {
		if strings.EqualFold(strings.TrimSpace(service), o.ServiceType) {
			score++
			break
		}
	}
	return score + o.AcceptedCount
}

// Rank orders offers by descending relevance score. The sort is stable:
// equal scores keep their incoming relative order. The input slice is not
// modified.
func Rank(offers []ListedOffer, viewerServices []string) []ListedOffer {
	ranked := make([]ListedOffer, len(offers))
	copy(ranked, offers)

	for i := range ranked {
		ranked[i].RelevanceScore = Score(ranked[i], viewerServices)
	}

	if len(viewerServices) == 0 {
		return ranked
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})

	return ranked
}
