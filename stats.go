package main

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Moments returns the column means and the covariance matrix of the
// rows of points
func Moments(points mat.Matrix) (mean []float64, cov *mat.SymDense) {
	r, c := points.Dims()
	mean = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, points)
		mean[j] = stat.Mean(col, nil)
	}
	cov = mat.NewSymDense(c, nil)
	stat.CovarianceMatrix(cov, points, nil)
	return
}

// Histogram bins column j of points into n equal bins on [lo, hi) and
// returns the fraction of rows in each. Rows outside the range are
// not counted.
func Histogram(points mat.Matrix, j int, lo, hi float64, n int) []float64 {
	r, _ := points.Dims()
	col := make([]float64, 0, r)
	for i := 0; i < r; i++ {
		x := points.At(i, j)
		if x >= lo && x < hi {
			col = append(col, x)
		}
	}
	sort.Float64s(col)
	dividers := make([]float64, n+1)
	floats.Span(dividers, lo, hi)
	count := make([]float64, n)
	stat.Histogram(count, dividers, col, nil)
	floats.Scale(1/float64(r), count)
	return count
}
