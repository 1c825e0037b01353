/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package histogram

import (
	"math"
	"sort"
)

// Epsilon is the infinitesimal probability substituted for a template id
// missing from one distribution, to avoid log-of-zero (§4.9).
const Epsilon = 1e-10

// Contribution is one template's share of an overall JSD score (§4.9
// "Contribution decomposition").
type Contribution struct {
	TemplateID          uint64
	BaselineProbability float64
	CurrentProbability  float64
	Contribution        float64
	RelativeChange       float64
}

// Result bundles the overall score with its per-template decomposition,
// sorted by contribution descending.
type Result struct {
	JSDScore      float64
	Contributions []Contribution
}

// CalculateJSD computes the Jensen-Shannon divergence between baseline (P)
// and current (Q), in nats, plus the per-template decomposition (§4.9, T6,
// T7). Ported from original_source/src/jsd.rs.
func CalculateJSD(baseline, current *Histogram) Result {
	if baseline.Total() == 0 || current.Total() == 0 {
		return Result{}
	}

	p := baseline.ToDistribution()
	q := current.ToDistribution()

	ids := unionIDs(baseline, current)

	var klP, klQ float64
	contributions := make([]Contribution, 0, len(ids))
	for _, id := range ids {
		rawP := p.Prob(id)
		rawQ := q.Prob(id)

		effP := rawP
		if effP == 0 {
			effP = Epsilon
		}
		effQ := rawQ
		if effQ == 0 {
			effQ = Epsilon
		}
		m := (effP + effQ) * 0.5

		termP := effP * (math.Log(effP) - math.Log(m))
		termQ := effQ * (math.Log(effQ) - math.Log(m))
		klP += termP
		klQ += termQ

		relChange := relativeChange(rawP, rawQ)
		contributions = append(contributions, Contribution{
			TemplateID:          id,
			BaselineProbability: rawP,
			CurrentProbability:  rawQ,
			Contribution:        (termP + termQ) * 0.5,
			RelativeChange:      relChange,
		})
	}

	sort.Slice(contributions, func(i, j int) bool {
		return contributions[i].Contribution > contributions[j].Contribution
	})

	jsd := (klP + klQ) * 0.5
	if jsd < 0 {
		jsd = 0
	}
	return Result{JSDScore: jsd, Contributions: contributions}
}

// CalculateJSDBits converts a nats-based JSD score to bits. Supplemented
// from original_source/src/jsd.rs's calculate_jsd_bits — a one-line
// enrichment over the distilled spec, carried in per SPEC_FULL.md §9.
func CalculateJSDBits(jsdNats float64) float64 {
	return jsdNats / math.Ln2
}

// TopContributors returns the n highest-contribution entries, or all of them
// if there are fewer than n.
func (r Result) TopContributors(n int) []Contribution {
	if n > len(r.Contributions) {
		n = len(r.Contributions)
	}
	return r.Contributions[:n]
}

func relativeChange(p, q float64) float64 {
	switch {
	case p > 0:
		return (q - p) / p * 100
	case q > 0:
		return 100.0
	default:
		return 0.0
	}
}

func unionIDs(a, b *Histogram) []uint64 {
	seen := make(map[uint64]struct{}, len(a.counts)+len(b.counts))
	for id := range a.counts {
		seen[id] = struct{}{}
	}
	for id := range b.counts {
		seen[id] = struct{}{}
	}
	ids := make([]uint64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
