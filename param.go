package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// WriteParams writes the weights and biases of net to w, one layer per
// block. A block starts with a "layer i rows cols" header followed by
// the rows of W with the bias appended as a last column.
func WriteParams(w io.Writer, net *Net) error {
	nw := bufio.NewWriter(w)
	for i, l := range net.Layers {
		fmt.Fprintf(nw, "layer %d %d %d\n", i, len(l.W), len(l.W[0]))
		for o := range l.W {
			for _, v := range l.W[o] {
				fmt.Fprintf(nw, "%20.12f", v.Data)
			}
			fmt.Fprintf(nw, "%20.12f\n", l.B[o].Data)
		}
	}
	fmt.Fprint(nw, "\n")
	return nw.Flush()
}

func LogParams(w io.Writer, net *Net, epoch int) error {
	if _, err := fmt.Fprintf(w, "Epoch %5d\n", epoch); err != nil {
		return errors.Wrapf(err, "logging epoch %d", epoch)
	}
	return errors.Wrapf(WriteParams(w, net), "logging epoch %d", epoch)
}

func DumpParams(net *Net, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "dumping params")
	}
	defer f.Close()
	return WriteParams(f, net)
}

// ReadParams overwrites the parameters of net with those in r, which
// must have the layout written by WriteParams for a network of the
// same shape. Only the first block is read, so a params.log restores
// its earliest epoch.
func ReadParams(r io.Reader, net *Net) error {
	scanner := bufio.NewScanner(r)
	var (
		layer = -1
		row   int
	)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		switch {
		case len(fields) == 0:
			if layer >= 0 {
				return checkLayers(net, layer, row)
			}
		case fields[0] == "Epoch":
		case fields[0] == "layer":
			if layer >= 0 && row != len(net.Layers[layer].W) {
				return errors.Errorf("layer %d: got %d rows, wanted %d",
					layer, row, len(net.Layers[layer].W))
			}
			layer++
			row = 0
			if layer >= len(net.Layers) {
				return errors.Errorf("too many layers, wanted %d",
					len(net.Layers))
			}
			want := fmt.Sprintf("layer %d %d %d", layer,
				len(net.Layers[layer].W), len(net.Layers[layer].W[0]))
			if got := strings.Join(fields, " "); got != want {
				return errors.Errorf("got header %q, wanted %q", got, want)
			}
		default:
			if layer < 0 {
				return errors.Errorf("data before layer header: %q",
					scanner.Text())
			}
			l := net.Layers[layer]
			if row >= len(l.W) {
				return errors.Errorf("layer %d: too many rows", layer)
			}
			vals, err := toFloat(fields)
			if err != nil {
				return errors.Wrapf(err, "layer %d row %d", layer, row)
			}
			if len(vals) != len(l.W[row])+1 {
				return errors.Wrapf(ErrBadDim, "layer %d row %d", layer, row)
			}
			for i, v := range l.W[row] {
				v.Data = vals[i]
			}
			l.B[row].Data = vals[len(vals)-1]
			row++
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "reading params")
	}
	return checkLayers(net, layer, row)
}

func checkLayers(net *Net, layer, row int) error {
	if layer < 0 {
		return errors.New("no params found")
	}
	if layer != len(net.Layers)-1 || row != len(net.Layers[layer].W) {
		return errors.Errorf("params end at layer %d row %d", layer, row)
	}
	return nil
}

// LoadParams reads the parameters in filename into net
func LoadParams(filename string, net *Net) error {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "loading params")
	}
	defer f.Close()
	return errors.Wrap(ReadParams(f, net), filename)
}
