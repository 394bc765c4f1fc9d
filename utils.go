package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"strconv"
	"syscall"

	"gonum.org/v1/gonum/mat"
)

const EPS = 1e-14

// toFloat converts a list of strings to float64s using
// strconv.ParseFloat
func toFloat(strs []string) ([]float64, error) {
	ret := make([]float64, len(strs))
	var err error
	for i, s := range strs {
		ret[i], err = strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
	}
	return ret, nil
}

func Equal(a, b float64) bool {
	return math.Abs(a-b) <= EPS
}

// Line returns n configurations evenly spaced from a to b, inclusive,
// one per row
func Line(a, b []float64, n int) *mat.Dense {
	ret := mat.NewDense(n, len(a), nil)
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		for k := range a {
			ret.Set(i, k, a[k]+t*(b[k]-a[k]))
		}
	}
	return ret
}

func WriteMat(w io.Writer, m mat.Matrix) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		fmt.Fprintf(w, "%5d", i)
		for j := 0; j < c; j++ {
			fmt.Fprintf(w, "%20.12f", m.At(i, j))
		}
		fmt.Fprint(w, "\n")
	}
	fmt.Fprint(w, "\n")
}

// DupOutErr uses syscall.Dup2 to direct the stdout and stderr streams
// to files
func DupOutErr(infile string) {
	// set up output and err files and dup their fds to stdout and stderr
	// https://github.com/golang/go/issues/325
	base := infile[:len(infile)-len(path.Ext(infile))]
	outfile, _ := os.Create(base + ".out")
	errfile, _ := os.Create(base + ".log")
	syscall.Dup2(int(outfile.Fd()), 1)
	syscall.Dup2(int(errfile.Fd()), 2)
}
