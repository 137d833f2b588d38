package output

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"

	"github.com/egmsolve/retirement-model/internal/domain"
	"github.com/egmsolve/retirement-model/pkg/money"
)

// MomentsCSV writes per-age moments of a single-household panel, one row per
// age, amounts in kroner.
type MomentsCSV struct{}

func (MomentsCSV) Name() string { return "moments-csv" }

func (MomentsCSV) Format(moments []AgeMoment) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Age", "Alive", "MeanCashOnHand", "MeanConsumption", "MeanAssets", "RetiredShare", "MeanAbsEulerResidual"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, m := range moments {
		row := []string{
			strconv.Itoa(m.Age),
			strconv.Itoa(m.Alive),
			kroner(m.MeanM),
			kroner(m.MeanC),
			kroner(m.MeanA),
			floatCell(m.RetiredShare),
			floatCell(m.MeanAbsEuler),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// CoupleMomentsCSV is the couple counterpart of MomentsCSV.
type CoupleMomentsCSV struct{}

func (CoupleMomentsCSV) Name() string { return "couple-moments-csv" }

func (CoupleMomentsCSV) Format(moments []CoupleAgeMoment) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"HusbandAge", "Alive", "MeanCashOnHand", "MeanConsumption", "MeanAssets", "HusbandRetiredShare", "WifeRetiredShare"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, m := range moments {
		row := []string{
			strconv.Itoa(m.Age),
			strconv.Itoa(m.Alive),
			kroner(m.MeanM),
			kroner(m.MeanC),
			kroner(m.MeanA),
			floatCell(m.HusbandRetiredShare),
			floatCell(m.WifeRetiredShare),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// PanelCSV writes the full single-household panel, one row per household and
// period. Dead household-periods are skipped.
type PanelCSV struct{}

func (PanelCSV) Name() string { return "panel-csv" }

func (PanelCSV) Format(p *domain.SimulationPanel, startAge int) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Household", "Age", "Gender", "State", "CashOnHand", "Consumption", "Assets", "Retired", "RetirementStatus", "RetirementProb", "EulerResidual"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i := 0; i < p.N; i++ {
		st := p.States[i]
		for t := 0; t < p.T; t++ {
			idx := p.Idx(t, i)
			if !p.Alive[idx] {
				break
			}
			row := []string{
				strconv.Itoa(i),
				strconv.Itoa(startAge + t),
				st.Gender.String(),
				strconv.Itoa(st.State),
				kroner(p.M[idx]),
				kroner(p.C[idx]),
				kroner(p.A[idx]),
				retiredCell(p.Choice[idx]),
				strconv.Itoa(int(p.RA[idx])),
				floatCell(p.Prob[idx]),
				floatCell(p.Euler[idx]),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// CouplePanelCSV writes the full couple panel. Rows continue while either
// spouse survives; ages are the husband's.
type CouplePanelCSV struct{}

func (CouplePanelCSV) Name() string { return "couple-panel-csv" }

func (CouplePanelCSV) Format(p *domain.CoupleSimulationPanel, startAge int) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Household", "HusbandAge", "AgeDiff", "HusbandState", "WifeState", "CashOnHand", "Consumption", "Assets", "HusbandRetired", "WifeRetired", "HusbandStatus", "WifeStatus", "HusbandRetirementProb", "WifeRetirementProb"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for i := 0; i < p.N; i++ {
		st := p.States[i]
		for t := 0; t < p.T; t++ {
			idx := p.Idx(t, i)
			if !p.AliveH[idx] && !p.AliveW[idx] {
				break
			}
			row := []string{
				strconv.Itoa(i),
				strconv.Itoa(startAge + t),
				strconv.Itoa(st.AgeDiff),
				strconv.Itoa(st.State),
				strconv.Itoa(st.SpouseState),
				kroner(p.M[idx]),
				kroner(p.C[idx]),
				kroner(p.A[idx]),
				retiredCell(p.ChoiceH[idx]),
				retiredCell(p.ChoiceW[idx]),
				strconv.Itoa(int(p.RAH[idx])),
				strconv.Itoa(int(p.RAW[idx])),
				floatCell(p.ProbH[idx]),
				floatCell(p.ProbW[idx]),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func kroner(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return money.FromModel(v).String()
}

func floatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func retiredCell(choice int8) string {
	switch choice {
	case domain.ChoiceRetired:
		return "1"
	case domain.ChoiceWorking:
		return "0"
	default:
		return ""
	}
}
