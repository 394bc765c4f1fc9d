package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"runtime/pprof"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Flags
var (
	debug      = flag.Bool("debug", false, "toggle debugging information")
	cpuprofile = flag.String("cpu", "", "write a CPU profile")
	seed       = flag.Uint64("seed", 0,
		"override the random seed from the input file")
	one = flag.Bool("one", false,
		"evaluate the energy of the initial network and exit")
)

func main() {
	host, _ := os.Hostname()
	flag.Parse()
	args := flag.Args()
	infile := "vmc.toml"
	if len(args) >= 1 {
		infile = args[0]
		DupOutErr(infile)
	}
	base := infile[:len(infile)-len(path.Ext(infile))]
	fmt.Printf("running on host: %s\n", host)
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}
	conf, err := LoadConfig(infile)
	if err != nil {
		log.Fatalf("%+v", err)
	}
	if *seed != 0 {
		conf.Seed = *seed
	}
	src := rand.NewSource(conf.Seed)
	net := NewNet(conf.Mol, conf.Hidden, conf.Smear, src)
	if conf.Params != "" {
		if err := LoadParams(conf.Params, net); err != nil {
			log.Fatalf("%+v", err)
		}
	}
	fmt.Printf("R = %.6f bohr, %d params, losses = %v\n",
		conf.Mol.Bond(), len(net.Parameters()), conf.Losses)
	fmt.Printf("batch size = %d, steps = %d, epochs = %d\n",
		conf.BatchSize, conf.Steps, conf.Epochs)
	trainer := NewTrainer(conf, net, src)
	trainer.Out = os.Stdout
	trainer.Debug = *debug
	fmt.Printf("%10s%30s%10s%10s\n", "Samples", "E (eV)", "Accept", "Time")
	if *one {
		trainer.EvaluateAll()
		return
	}
	paramLog, err := os.Create("params.log")
	if err != nil {
		log.Fatalf("%+v", err)
	}
	defer paramLog.Close()
	trainer.ParamLog = paramLog
	if conf.Profile != "" {
		profile, err := os.Create(conf.Profile)
		if err != nil {
			log.Fatalf("%+v", err)
		}
		defer profile.Close()
		trainer.Profile = profile
	}
	start := time.Now()
	results, err := trainer.Run()
	if err != nil {
		log.Fatalf("%+v", err)
	}
	fmt.Printf("\n%5s%10s%12s%16s%30s%10s%10s\n",
		"Epoch", "Mode", "LR", "Loss (eV)", "E (eV)", "Accept", "Time")
	for _, r := range results {
		fmt.Println(r.Row(conf.Mol))
	}
	fmt.Printf("total time: %.1f s\n", time.Since(start).Seconds())
	if trainer.RestoreBest() {
		fmt.Printf("best epoch %d: E = %s eV\n",
			trainer.BestEpoch, trainer.BestEnergy.In(htToEv))
		if err := DumpParams(net, base+".params"); err != nil {
			log.Fatalf("%+v", err)
		}
	}
	if conf.Points != nil {
		r, _ := conf.Points.Dims()
		// the configuration followed by psi on each row
		tab := mat.NewDense(r, NDIM+1, nil)
		tab.Slice(0, r, 0, NDIM).(*mat.Dense).Copy(conf.Points)
		for i := 0; i < r; i++ {
			tab.Set(i, NDIM, net.Psi(conf.Points.RawRowView(i)))
		}
		fmt.Println("\nPsi at requested points:")
		WriteMat(os.Stdout, tab)
	}
}
