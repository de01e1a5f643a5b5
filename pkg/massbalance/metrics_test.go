package massbalance_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/massbal/massbal/pkg/massbalance"
)

func record(assay, degradants, assayRSD, impurityRSD float64) massbalance.SampleRecord {
	return massbalance.SampleRecord{
		StressCondition:    "acidic",
		APIAssayPct:        assay,
		TotalDegradantsPct: degradants,
		AssayRSDPct:        assayRSD,
		ImpurityRSDPct:     impurityRSD,
		TemperatureC:       60,
		TimeMonths:         1,
	}
}

func TestCompute_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		rec         massbalance.SampleRecord
		wantAMB     float64
		wantZMB     float64
		wantUncert  float64
		undetermine bool
	}{
		{
			name:       "closed mass balance",
			rec:        record(98.0, 2.0, 1.0, 1.0),
			wantAMB:    0,
			wantZMB:    0,
			wantUncert: math.Sqrt2,
		},
		{
			name:       "mass deficit",
			rec:        record(90.0, 3.0, 1.0, 1.0),
			wantAMB:    -7.0,
			wantZMB:    7.0 / math.Sqrt2,
			wantUncert: math.Sqrt2,
		},
		{
			name:       "over-recovery",
			rec:        record(97.0, 9.0, 1.0, 1.0),
			wantAMB:    6.0,
			wantZMB:    6.0 / math.Sqrt2,
			wantUncert: math.Sqrt2,
		},
		{
			name:        "zero uncertainty",
			rec:         record(95.0, 5.0, 0, 0),
			wantAMB:     0,
			undetermine: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := massbalance.Compute(tc.rec)
			require.NoError(t, err)

			assert.Equal(t, tc.wantAMB, m.AMB)
			assert.Equal(t, math.Abs(tc.wantAMB), m.AMBD)
			assert.Equal(t, m.AMB, m.RMB)
			assert.Equal(t, math.Abs(m.RMB), m.RMBD)
			assert.InDelta(t, tc.wantUncert, m.CombinedUncertainty, 1e-12)

			if tc.undetermine {
				assert.True(t, m.Undetermined())
				assert.Nil(t, m.ZMB)
				return
			}
			require.NotNil(t, m.ZMB)
			assert.InDelta(t, tc.wantZMB, *m.ZMB, 1e-9)
		})
	}
}

func TestCompute_Properties(t *testing.T) {
	values := []float64{0, 0.5, 1, 2.5, 10, 49.9, 90, 99.99, 100, 101.3, 120}
	rsds := []float64{0, 0.1, 0.8, 2}

	for _, assay := range values {
		for _, deg := range values[:6] {
			for _, ar := range rsds {
				for _, ir := range rsds {
					r := record(assay, deg, ar, ir)
					m, err := massbalance.Compute(r)
					require.NoError(t, err)

					assert.Equal(t, assay+deg-100, m.AMB, "AMB is exact")
					assert.GreaterOrEqual(t, m.AMBD, 0.0)
					assert.GreaterOrEqual(t, m.RMBD, 0.0)
					assert.Equal(t, m.AMB, m.RMB)

					if ar == 0 && ir == 0 {
						assert.Nil(t, m.ZMB)
						continue
					}
					require.NotNil(t, m.ZMB)
					assert.GreaterOrEqual(t, *m.ZMB, 0.0)
					assert.InDelta(t, m.AMBD/math.Sqrt(ar*ar+ir*ir), *m.ZMB, 1e-9)
				}
			}
		}
	}
}

func TestCompute_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		rec  massbalance.SampleRecord
	}{
		{"negative assay RSD", record(95, 3, -0.1, 1)},
		{"negative impurity RSD", record(95, 3, 1, -2)},
		{"NaN assay", record(math.NaN(), 3, 1, 1)},
		{"infinite degradants", record(95, math.Inf(1), 1, 1)},
		{"subnormal RSD overflows Z_MB", record(90, 3, 1e-320, 0)},
		{"AMB overflows", record(1e308, 1e308, 1, 1)},
		{"combined uncertainty overflows", record(95, 3, 1.5e308, 1.5e308)},
		{"recovery ratio overflows", record(100-1e-13, 1e308, 1e308, 0)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := massbalance.Compute(tc.rec)
			require.Error(t, err)
			assert.ErrorIs(t, err, massbalance.ErrInvalidInput)
		})
	}
}

func TestCompute_RecoveryRatio(t *testing.T) {
	m, err := massbalance.Compute(record(90, 3, 1, 1))
	require.NoError(t, err)
	require.NotNil(t, m.RecoveryRatio)
	assert.InDelta(t, 0.3, *m.RecoveryRatio, 1e-12)

	m, err = massbalance.Compute(record(100, 1, 1, 1))
	require.NoError(t, err)
	assert.Nil(t, m.RecoveryRatio, "no assay loss leaves the ratio undefined")
}

func TestSignedZMB(t *testing.T) {
	m, err := massbalance.Compute(record(85, 0, 3, 4))
	require.NoError(t, err)
	z, ok := m.SignedZMB()
	require.True(t, ok)
	assert.Equal(t, -3.0, z)

	m, err = massbalance.Compute(record(95, 5, 0, 0))
	require.NoError(t, err)
	_, ok = m.SignedZMB()
	assert.False(t, ok)
}

func TestStressSeverity(t *testing.T) {
	r := record(95, 3, 1, 1)
	r.TemperatureC = 40
	r.TimeMonths = 6
	assert.Equal(t, 240.0, massbalance.StressSeverity(r, 1))
	assert.Equal(t, 480.0, massbalance.StressSeverity(r, 2))
}
