package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/egmsolve/retirement-model/internal/domain"
)

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser)
}

func writeTempConfig(t *testing.T, input *Input) string {
	t.Helper()
	data, err := yaml.Marshal(input)
	require.NoError(t, err)

	tmpfile, err := os.CreateTemp(t.TempDir(), "test_config_*.yaml")
	require.NoError(t, err)
	_, err = tmpfile.Write(data)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())
	return tmpfile.Name()
}

func TestLoadFromFile_Success(t *testing.T) {
	parser := NewInputParser()
	path := writeTempConfig(t, parser.CreateExampleInput(false))

	par, err := parser.LoadFromFile(path)
	require.NoError(t, err)
	require.NotNil(t, par)

	assert.False(t, par.Couple)
	assert.Equal(t, 110-57+1, par.T)
	assert.Equal(t, 77-57+1, par.TR)
	assert.Len(t, par.SimStates, par.SimN)
}

func TestLoadFromFile_Couple(t *testing.T) {
	parser := NewInputParser()
	path := writeTempConfig(t, parser.CreateExampleInput(true))

	par, err := parser.LoadFromFile(path)
	require.NoError(t, err)
	require.NotNil(t, par)

	assert.True(t, par.Couple)
	assert.Len(t, par.SimStates, par.SimN)
	for _, st := range par.SimStates {
		assert.Contains(t, par.AgeDiffs, st.AgeDiff)
	}
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	parser := NewInputParser()
	par, err := parser.LoadFromFile("nonexistent_file.yaml")

	assert.Error(t, err)
	assert.Nil(t, par)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp(t.TempDir(), "test_config_*.yaml")
	require.NoError(t, err)
	_, err = tmpfile.Write([]byte("ages:\n\tstart: [not: valid\n"))
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	parser := NewInputParser()
	par, err := parser.LoadFromFile(tmpfile.Name())

	assert.Error(t, err)
	assert.Nil(t, par)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidateInput_Success(t *testing.T) {
	parser := NewInputParser()
	err := parser.ValidateInput(parser.CreateExampleInput(false))
	assert.NoError(t, err)

	err = parser.ValidateInput(parser.CreateExampleInput(true))
	assert.NoError(t, err)
}

func TestValidateInput_BadAgeOrdering(t *testing.T) {
	parser := NewInputParser()

	input := parser.CreateExampleInput(false)
	input.Pension.TwoYearAge = input.Pension.OAPAge + 1
	err := parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pension ages must be ordered")

	input = parser.CreateExampleInput(false)
	input.Ages.ForcedRetirement = input.Ages.End + 5
	err = parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "before end age")

	input = parser.CreateExampleInput(false)
	input.Ages.ForcedRetirement = input.Ages.Start + 1
	err = parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least two years after start age")
}

func TestValidateInput_NonInvertibleUtility(t *testing.T) {
	parser := NewInputParser()

	input := parser.CreateExampleInput(false)
	input.Preferences.Rho = 0
	err := parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rho must be positive")

	input.Preferences.Rho = 1
	err = parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rho of exactly 1")
}

func TestValidateInput_BadShocks(t *testing.T) {
	parser := NewInputParser()

	input := parser.CreateExampleInput(false)
	input.Shocks.VarMen = -0.1
	err := parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "variances cannot be negative")

	// covariance incompatible with the variances, no valid Cholesky factor
	input = parser.CreateExampleInput(true)
	input.Shocks.Cov = 1.5
	err = parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "covariance")
}

func TestValidateInput_BadGrid(t *testing.T) {
	parser := NewInputParser()

	input := parser.CreateExampleInput(false)
	input.Grid.Na = 1
	err := parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 points")

	input = parser.CreateExampleInput(false)
	input.Grid.NXi = 0
	err = parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least one node")
}

func TestValidateInput_BadRegressions(t *testing.T) {
	parser := NewInputParser()
	input := parser.CreateExampleInput(false)
	input.Regressions.LaborMale = input.Regressions.LaborMale[:3]

	err := parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "labor_male needs 4 coefficients")
}

func TestValidateInput_BadSimulation(t *testing.T) {
	parser := NewInputParser()

	input := parser.CreateExampleInput(false)
	input.Simulation.Households = 0
	err := parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")

	input = parser.CreateExampleInput(false)
	input.Simulation.States = nil
	err = parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least one household state share")

	input = parser.CreateExampleInput(false)
	input.Simulation.States[0].Share = 0.5
	err = parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must sum to 1")

	input = parser.CreateExampleInput(false)
	input.Simulation.States[0].Gender = "other"
	err = parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "gender must be")

	input = parser.CreateExampleInput(true)
	input.Simulation.States[0].AgeDiff = 99
	err = parser.ValidateInput(input)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not in configured age differences")
}

func TestToParams_ExpandsStateShares(t *testing.T) {
	parser := NewInputParser()
	input := parser.CreateExampleInput(false)
	input.Simulation.Households = 10
	input.Simulation.States = []StateShare{
		{Gender: "male", State: 3, Share: 0.7},
		{Gender: "female", State: 0, Share: 0.3},
	}

	par, err := parser.ToParams(input)
	require.NoError(t, err)
	require.Len(t, par.SimStates, 10)

	males := 0
	for _, st := range par.SimStates {
		if st.Gender == domain.Male {
			males++
			assert.Equal(t, 3, st.State)
		}
	}
	assert.Equal(t, 7, males)
}

func TestToParams_MatchesDefaults(t *testing.T) {
	parser := NewInputParser()
	par, err := parser.ToParams(parser.CreateExampleInput(false))
	require.NoError(t, err)

	def := domain.DefaultParams(false)
	assert.Equal(t, def.Rho, par.Rho)
	assert.Equal(t, def.Tax.TauMax, par.Tax.TauMax)
	assert.Equal(t, def.T, par.T)
	assert.Equal(t, def.RegPensionFemale, par.RegPensionFemale)
}
