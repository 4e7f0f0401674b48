package training

import (
	"math"

	"fpl-points-predictor/internal/features"
)

// Example is a model-ready record. Identity fields ride along for joins and
// reporting but are not features.
type Example struct {
	Code       int
	FirstName  string
	SecondName string
	Year       string

	X      []float64 // FeatureNames order
	Target float64
}

// Feature returns the value of a named feature, or NaN if the name is unknown.
func (e Example) Feature(name string) float64 {
	for i, n := range FeatureNames {
		if n == name && i < len(e.X) {
			return e.X[i]
		}
	}
	return math.NaN()
}

// Preprocess turns training rows into examples: element types become
// numeric, missing previous-season columns take the column mean over rows
// that have them, and every feature is rounded to 2dp.
func Preprocess(rows []Row) ([]Example, error) {
	out := make([]Example, 0, len(rows))
	for _, r := range rows {
		et, err := ElementTypeIndex(r.ElementType)
		if err != nil {
			return nil, err
		}
		out = append(out, Example{
			FirstName:  r.FirstName,
			SecondName: r.SecondName,
			Year:       r.Year,
			X:          Vector(et, r.GW, r.Prev, r.Current),
			Target:     r.TotalPoints,
		})
	}
	FillPrevMeans(out)
	RoundExamples(out)
	return out, nil
}

// FillPrevMeans replaces NaN previous-season features with the mean of the
// same column across the other examples. A column with no values is set to 0.
func FillPrevMeans(ex []Example) {
	for col := prevStart; col < prevEnd; col++ {
		var sum float64
		var n int
		for _, e := range ex {
			if v := e.X[col]; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		mean := 0.0
		if n > 0 {
			mean = sum / float64(n)
		}
		for _, e := range ex {
			if math.IsNaN(e.X[col]) {
				e.X[col] = mean
			}
		}
	}
}

func RoundExamples(ex []Example) {
	for i := range ex {
		for j, v := range ex[i].X {
			ex[i].X[j] = features.Round2(v)
		}
		ex[i].Target = features.Round2(ex[i].Target)
	}
}

// Matrix splits examples into a design matrix and target vector.
func Matrix(ex []Example) ([][]float64, []float64) {
	X := make([][]float64, len(ex))
	y := make([]float64, len(ex))
	for i, e := range ex {
		X[i] = e.X
		y[i] = e.Target
	}
	return X, y
}
