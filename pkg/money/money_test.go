package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"already rounded", 1500, 1500},
		{"half rounds up", 1.005, 1.01},
		{"half away from zero negative", -2.345, -2.35},
		{"truncates below half", 1533.3333, 1533.33},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round2(tt.in))
		})
	}
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 15000.0, Total(10, 1500))
	assert.Equal(t, 8000.0, Total(5, 1600))
	assert.Equal(t, 0.3, Total(3, 0.1))
	assert.Equal(t, 2076.9, Total(3, 692.3))
}

func TestWeightedAverage(t *testing.T) {
	assert.Equal(t, 1533.33, WeightedAverage(1500, 10, 8000, 5))
	assert.Equal(t, 100.0, WeightedAverage(0, 0, 500, 5))
	assert.Equal(t, 0.0, WeightedAverage(0, 0, 0, 0))
}

func TestAddSubSum(t *testing.T) {
	assert.Equal(t, 85000.0, Sub(100000, 15000))
	assert.Equal(t, 102500.0, Add(77000, 25500))
	assert.Equal(t, 0.3, Add(0.1, 0.2))
	assert.Equal(t, 0.6, Sum(0.1, 0.2, 0.3))
	assert.Equal(t, 255.0, Mul(25500, 0.01))
	assert.Equal(t, 0.17, Mul(16.5, 0.01))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(10, 0))
	assert.Equal(t, 10.0, Percent(150, 1500))
	assert.Equal(t, -33.33, Percent(-1, 3))
}
