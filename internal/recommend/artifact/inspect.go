package artifact

import "math"

// Report summarizes the numeric health of a similarity matrix.
type Report struct {
	Talks        int
	MinScore     float32
	MaxScore     float32
	MaxAsymmetry float64 // max |s(i,j) - s(j,i)|
	AsymmetricAt [2]int  // first pair reaching MaxAsymmetry
	// DiagonalNotMax lists rows whose self-similarity is below another score in the row.
	DiagonalNotMax []int
}

// Symmetric reports whether no pair deviates by more than tol.
func (r Report) Symmetric(tol float64) bool {
	return r.MaxAsymmetry <= tol
}

// Inspect scans the matrix of set. It never fails: a loaded set is already valid,
// and these properties are expected but not required for serving.
func Inspect(set *Set) Report {
	m := set.Matrix
	n := m.Size()
	r := Report{
		Talks:    n,
		MinScore: float32(math.Inf(1)),
		MaxScore: float32(math.Inf(-1)),
	}
	for i := 0; i < n; i++ {
		row := m.Row(i)
		self := row[i]
		selfIsMax := true
		for j, s := range row {
			if s < r.MinScore {
				r.MinScore = s
			}
			if s > r.MaxScore {
				r.MaxScore = s
			}
			if j != i && s > self {
				selfIsMax = false
			}
			if j > i {
				d := math.Abs(float64(s) - float64(m.At(j, i)))
				if d > r.MaxAsymmetry {
					r.MaxAsymmetry = d
					r.AsymmetricAt = [2]int{i, j}
				}
			}
		}
		if !selfIsMax {
			r.DiagonalNotMax = append(r.DiagonalNotMax, i)
		}
	}
	return r
}
