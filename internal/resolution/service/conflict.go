package service

import (
	"sort"

	promotiondomain "github.com/smallbiznis/pricelist/internal/promotion/domain"
	resolutiondomain "github.com/smallbiznis/pricelist/internal/resolution/domain"
)

// resolveConflicts turns the eligible set into a deterministic application
// order. Within each non-empty exclusion group only one promotion survives:
// the one with the lowest priority value, ties broken by the smaller id.
// After the exclusion pass, at most one non-stackable promotion is retained
// (again lowest priority, then id) unless it is alone anyway; stackable
// promotions are always retained. The surviving set is ordered by
// (priority, id), which downstream amount math depends on.
func resolveConflicts(eligible []promotiondomain.Promotion) ([]promotiondomain.Promotion, []resolutiondomain.Skipped) {
	var dropped []resolutiondomain.Skipped

	winners := map[string]promotiondomain.Promotion{}
	var order []promotiondomain.Promotion
	for _, p := range eligible {
		group := p.ExclusionGroup
		if group == "" {
			order = append(order, p)
			continue
		}
		current, ok := winners[group]
		if !ok || wins(p, current) {
			winners[group] = p
		}
	}
	for _, p := range eligible {
		if p.ExclusionGroup == "" {
			continue
		}
		winner := winners[p.ExclusionGroup]
		if winner.ID == p.ID {
			order = append(order, p)
			continue
		}
		dropped = append(dropped, resolutiondomain.Skipped{
			PromotionID: p.ID,
			Reason:      resolutiondomain.SkipExclusionGroup,
			ExcludedBy:  winner.ID,
		})
	}

	if len(order) > 1 {
		var bestNonStackable *promotiondomain.Promotion
		for i := range order {
			if order[i].Stackable {
				continue
			}
			if bestNonStackable == nil || wins(order[i], *bestNonStackable) {
				p := order[i]
				bestNonStackable = &p
			}
		}
		if bestNonStackable != nil {
			kept := order[:0]
			for _, p := range order {
				if !p.Stackable && p.ID != bestNonStackable.ID {
					dropped = append(dropped, resolutiondomain.Skipped{
						PromotionID: p.ID,
						Reason:      resolutiondomain.SkipNotStackable,
						ExcludedBy:  bestNonStackable.ID,
					})
					continue
				}
				kept = append(kept, p)
			}
			order = kept
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return wins(order[i], order[j])
	})
	return order, dropped
}

// wins reports whether a precedes b: lower priority value first, then the
// lexicographically smaller id.
func wins(a, b promotiondomain.Promotion) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.ID < b.ID
}
