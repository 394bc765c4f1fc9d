package main

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMoments(t *testing.T) {
	points := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 4,
		5, 9,
	})
	mean, cov := Moments(points)
	want := []float64{3, 5}
	if !compFloat(mean, want, 1e-14) {
		t.Errorf("got %v, wanted %v\n", mean, want)
	}
	wantCov := mat.NewSymDense(2, []float64{
		4, 7,
		7, 13,
	})
	if !mat.EqualApprox(cov, wantCov, 1e-12) {
		t.Errorf("got %v, wanted %v\n", mat.Formatted(cov), mat.Formatted(wantCov))
	}
}

func TestHistogram(t *testing.T) {
	points := mat.NewDense(4, 1, []float64{0.6, 0.1, 1.5, 0.2})
	got := Histogram(points, 0, 0, 1, 2)
	want := []float64{0.5, 0.25}
	if !compFloat(got, want, 1e-14) {
		t.Errorf("got %v, wanted %v\n", got, want)
	}
}
