package output

import (
	"math"

	"github.com/egmsolve/retirement-model/internal/domain"
)

// AgeMoment summarises one simulated period across the surviving panel.
type AgeMoment struct {
	Age          int
	Alive        int
	MeanM        float64
	MeanC        float64
	MeanA        float64
	RetiredShare float64
	MeanAbsEuler float64 // NaN when no residuals were computed
}

// ComputeMoments aggregates a single-household panel into per-age means.
// Dead households are excluded; the Euler column averages absolute residuals
// over the subset where one was computed.
func ComputeMoments(p *domain.SimulationPanel, startAge int) []AgeMoment {
	out := make([]AgeMoment, 0, p.T)
	for t := 0; t < p.T; t++ {
		mom := AgeMoment{Age: startAge + t, MeanAbsEuler: math.NaN()}
		var retired, eulerN int
		var eulerSum float64
		for i := 0; i < p.N; i++ {
			idx := p.Idx(t, i)
			if !p.Alive[idx] {
				continue
			}
			mom.Alive++
			mom.MeanM += p.M[idx]
			mom.MeanC += p.C[idx]
			mom.MeanA += p.A[idx]
			if p.Choice[idx] == domain.ChoiceRetired {
				retired++
			}
			if e := p.Euler[idx]; !math.IsNaN(e) {
				eulerSum += math.Abs(e)
				eulerN++
			}
		}
		if mom.Alive > 0 {
			n := float64(mom.Alive)
			mom.MeanM /= n
			mom.MeanC /= n
			mom.MeanA /= n
			mom.RetiredShare = float64(retired) / n
		}
		if eulerN > 0 {
			mom.MeanAbsEuler = eulerSum / float64(eulerN)
		}
		out = append(out, mom)
	}
	return out
}

// CoupleAgeMoment summarises one simulated period of the couple panel,
// with retirement shares tracked per spouse. Ages are the husband's.
type CoupleAgeMoment struct {
	Age                 int
	Alive               int // households with at least one survivor
	MeanM               float64
	MeanC               float64
	MeanA               float64
	HusbandRetiredShare float64 // among surviving husbands
	WifeRetiredShare    float64
}

// ComputeCoupleMoments aggregates a couple panel into per-age means.
func ComputeCoupleMoments(p *domain.CoupleSimulationPanel, startAge int) []CoupleAgeMoment {
	out := make([]CoupleAgeMoment, 0, p.T)
	for t := 0; t < p.T; t++ {
		mom := CoupleAgeMoment{Age: startAge + t}
		var aliveH, aliveW, retH, retW int
		for i := 0; i < p.N; i++ {
			idx := p.Idx(t, i)
			if !p.AliveH[idx] && !p.AliveW[idx] {
				continue
			}
			mom.Alive++
			mom.MeanM += p.M[idx]
			mom.MeanC += p.C[idx]
			mom.MeanA += p.A[idx]
			if p.AliveH[idx] {
				aliveH++
				if p.ChoiceH[idx] == domain.ChoiceRetired {
					retH++
				}
			}
			if p.AliveW[idx] {
				aliveW++
				if p.ChoiceW[idx] == domain.ChoiceRetired {
					retW++
				}
			}
		}
		if mom.Alive > 0 {
			n := float64(mom.Alive)
			mom.MeanM /= n
			mom.MeanC /= n
			mom.MeanA /= n
		}
		if aliveH > 0 {
			mom.HusbandRetiredShare = float64(retH) / float64(aliveH)
		}
		if aliveW > 0 {
			mom.WifeRetiredShare = float64(retW) / float64(aliveW)
		}
		out = append(out, mom)
	}
	return out
}
