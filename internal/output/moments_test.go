package output

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egmsolve/retirement-model/internal/domain"
)

func buildTestPanel() *domain.SimulationPanel {
	p := domain.NewSimulationPanel(2, 3)
	// period 0: all alive, household 2 retired
	for i := 0; i < 3; i++ {
		idx := p.Idx(0, i)
		p.Alive[idx] = true
		p.M[idx] = 10
		p.C[idx] = float64(2 + i)
		p.A[idx] = p.M[idx] - p.C[idx]
		p.Choice[idx] = domain.ChoiceWorking
	}
	p.Choice[p.Idx(0, 2)] = domain.ChoiceRetired
	p.Euler[p.Idx(0, 0)] = 0.01
	p.Euler[p.Idx(0, 1)] = -0.03

	// period 1: household 1 died
	for _, i := range []int{0, 2} {
		idx := p.Idx(1, i)
		p.Alive[idx] = true
		p.M[idx] = 8
		p.C[idx] = 4
		p.A[idx] = 4
		p.Choice[idx] = domain.ChoiceRetired
	}
	return p
}

func TestComputeMoments(t *testing.T) {
	moments := ComputeMoments(buildTestPanel(), 57)
	require.Len(t, moments, 2)

	m0 := moments[0]
	assert.Equal(t, 57, m0.Age)
	assert.Equal(t, 3, m0.Alive)
	assert.InDelta(t, 10.0, m0.MeanM, 1e-12)
	assert.InDelta(t, 3.0, m0.MeanC, 1e-12)
	assert.InDelta(t, 1.0/3.0, m0.RetiredShare, 1e-12)
	assert.InDelta(t, 0.02, m0.MeanAbsEuler, 1e-12)

	m1 := moments[1]
	assert.Equal(t, 58, m1.Age)
	assert.Equal(t, 2, m1.Alive)
	assert.InDelta(t, 1.0, m1.RetiredShare, 1e-12)
	assert.True(t, math.IsNaN(m1.MeanAbsEuler))
}

func TestMomentsCSV(t *testing.T) {
	data, err := MomentsCSV{}.Format(ComputeMoments(buildTestPanel(), 57))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Age,Alive,MeanCashOnHand,MeanConsumption,MeanAssets,RetiredShare,MeanAbsEulerResidual", lines[0])
	// 10 model units are 1 mio. kr.
	assert.Contains(t, lines[1], "1000000.00")
	// Euler column empty when nothing was computed
	assert.True(t, strings.HasSuffix(lines[2], ","))
}

func TestPanelCSV(t *testing.T) {
	p := buildTestPanel()
	p.States[0] = domain.SimState{Gender: domain.Male, State: 3}

	data, err := PanelCSV{}.Format(p, 57)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// header + 2 periods for households 0 and 2, 1 period for household 1
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], "male")
	assert.True(t, strings.HasPrefix(lines[1], "0,57,"))
}

func TestComputeCoupleMoments(t *testing.T) {
	p := domain.NewCoupleSimulationPanel(1, 2)
	for i := 0; i < 2; i++ {
		p.M[i] = 6
		p.C[i] = 3
		p.A[i] = 3
	}
	// household 0 intact, household 1 widow only
	p.AliveH[0], p.AliveW[0] = true, true
	p.ChoiceH[0], p.ChoiceW[0] = domain.ChoiceWorking, domain.ChoiceRetired
	p.AliveW[1] = true
	p.ChoiceW[1] = domain.ChoiceRetired

	moments := ComputeCoupleMoments(p, 57)
	require.Len(t, moments, 1)
	assert.Equal(t, 2, moments[0].Alive)
	assert.InDelta(t, 0.0, moments[0].HusbandRetiredShare, 1e-12)
	assert.InDelta(t, 1.0, moments[0].WifeRetiredShare, 1e-12)
	assert.InDelta(t, 6.0, moments[0].MeanM, 1e-12)
}
