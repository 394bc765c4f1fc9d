package main

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
)

func testMol() Molecule {
	return NewMolecule([]float64{0.7, 0, 0}, []float64{-0.7, 0, 0})
}

func TestWriteParams(t *testing.T) {
	net := NewNet(testMol(), nil, 0.5, rand.NewSource(1))
	for i, p := range net.Parameters() {
		p.Data = float64(i) / 4
	}
	var buf bytes.Buffer
	if err := WriteParams(&buf, net); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	want := `layer 0 1 5
      0.000000000000      0.250000000000      0.500000000000      0.750000000000      1.000000000000      1.250000000000

`
	if got != want {
		t.Errorf("got\n%q, wanted\n%q\n", got, want)
	}
}

func TestReadParams(t *testing.T) {
	mol := testMol()
	src := NewNet(mol, []int{3, 2}, 0.5, rand.NewSource(1))
	var buf bytes.Buffer
	if err := LogParams(&buf, src, 1); err != nil {
		t.Fatalf("%+v", err)
	}
	dst := NewNet(mol, []int{3, 2}, 0.5, rand.NewSource(2))
	if err := ReadParams(&buf, dst); err != nil {
		t.Fatalf("%+v", err)
	}
	got := ParamValues(dst)
	want := ParamValues(src)
	if !compFloat(got, want, 1e-12) {
		t.Errorf("got %v, wanted %v\n", got, want)
	}
}

func TestReadParamsShape(t *testing.T) {
	mol := testMol()
	var buf bytes.Buffer
	WriteParams(&buf, NewNet(mol, []int{3}, 0.5, rand.NewSource(1)))
	err := ReadParams(strings.NewReader(buf.String()),
		NewNet(mol, []int{4}, 0.5, rand.NewSource(1)))
	if err == nil {
		t.Errorf("expected an error reading a 3-wide layer into a 4-wide one")
	}
	err = ReadParams(strings.NewReader(""),
		NewNet(mol, []int{4}, 0.5, rand.NewSource(1)))
	if err == nil {
		t.Errorf("expected an error reading empty params")
	}
}

func TestParamValues(t *testing.T) {
	net := NewNet(testMol(), []int{2}, 0.5, rand.NewSource(1))
	got := len(ParamValues(net))
	// (5*2 + 2) + (2*1 + 1)
	want := 15
	if got != want {
		t.Errorf("got %v, wanted %v\n", got, want)
	}
	params := net.Parameters()
	params[0].Data = 42
	if vals := ParamValues(net); !reflect.DeepEqual(vals[0], 42.0) {
		t.Errorf("got %v, wanted %v\n", vals[0], 42.0)
	}
}

var errFull = errors.New("disk full")

// fullWriter accepts n bytes and then fails
type fullWriter struct{ n int }

func (w *fullWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		k := w.n
		w.n = 0
		return k, errFull
	}
	w.n -= len(p)
	return len(p), nil
}

func TestLogParamsError(t *testing.T) {
	net := NewNet(testMol(), []int{3}, 0.5, rand.NewSource(1))
	for _, n := range []int{0, 20} {
		err := LogParams(&fullWriter{n: n}, net, 1)
		if errors.Cause(err) != errFull {
			t.Errorf("after %d bytes: got %v, wanted %v\n", n, err, errFull)
		}
	}
}
