/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"math"
	"os"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jliuocean/oceanfv/freesurface"
	"github.com/jliuocean/oceanfv/grid"
	"github.com/jliuocean/oceanfv/model"
	"github.com/jliuocean/oceanfv/params"
)

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a free-surface simulation described by a YAML parameter file",
	Long: `
Runs the hydrostatic free-surface solver from a YAML parameter file,

oceanfv run -I input.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		inputFile, err := cmd.Flags().GetString("inputFile")
		if err != nil {
			panic(err)
		}
		prof, _ := cmd.Flags().GetBool("profile")
		if prof {
			defer profile.Start().Stop()
		}
		sp := processInput(inputFile)
		Run(sp)
	},
}

func processInput(inputFile string) (sp *params.SimulationParameters) {
	if len(inputFile) == 0 {
		fmt.Printf("error: must supply an input parameters file (-I, --inputFile)\n")
		exampleFile := `
########################################
Title: "Gravity Wave"
Nx: 64
Ny: 1
Nz: 4
Lx: 1000.
Ly: 100.
Lz: 10.
TopologyX: Periodic
TopologyY: Flat
Gravity: 9.81
Dt: 1.
FinalTime: 101.
FreeSurfaceSolver: SplitExplicit  # Can be "Implicit"
Integrator: AdamsBashforth3       # Can be "ForwardBackward"
InitialAmplitude: 0.05
InitialModeX: 1
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	data, err := ioutil.ReadFile(inputFile)
	if err != nil {
		panic(err)
	}
	sp = &params.SimulationParameters{}
	if err = sp.Parse(data); err != nil {
		panic(err)
	}
	return
}

func parseTopology(name string) grid.Topology {
	switch name {
	case "", "Periodic":
		return grid.Periodic
	case "Bounded":
		return grid.Bounded
	case "Flat":
		return grid.Flat
	default:
		panic(fmt.Errorf("unknown topology %q", name))
	}
}

func Run(sp *params.SimulationParameters) {
	sp.Print()
	g, err := grid.NewRectilinearGrid(sp.Nx, sp.Ny, sp.Nz, sp.Lx, sp.Ly, sp.Lz,
		parseTopology(sp.TopologyX), parseTopology(sp.TopologyY))
	if err != nil {
		logrus.WithError(err).Fatal("grid construction failed")
	}
	var fs model.FreeSurface
	switch sp.FreeSurfaceSolver {
	case "Implicit":
		fs = model.NewImplicitSurface(g, sp.Gravity)
	default:
		var integ freesurface.Integrator
		if sp.Integrator == "ForwardBackward" {
			integ = freesurface.NewForwardBackward()
		} else {
			integ = freesurface.NewAdamsBashforth3(sp.AB3Beta)
		}
		se := model.NewSplitExplicitSurface(g, integ, sp.Gravity)
		se.FS.FixedSubsteps = sp.FixedSubsteps
		if sp.BarotropicCFL > 0 {
			se.FS.CFL = sp.BarotropicCFL
		}
		fs = se
	}
	m := model.NewHydrostaticModel(g, fs, sp.Gravity, sp.Nu, sp.Kappa)
	if sp.Chi > 0 {
		m.Chi = sp.Chi
	}

	eta := m.FreeSurface.Eta()
	mode := float64(sp.InitialModeX)
	if mode == 0 {
		mode = 1
	}
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			eta.Set2(i, j, sp.InitialAmplitude*math.Sin(2*math.Pi*mode*g.XC(i)/g.Lx))
		}
	}
	eta.FillHalos()

	var (
		nsteps = int(math.Ceil(sp.FinalTime / sp.Dt))
		report = nsteps / 10
	)
	if report == 0 {
		report = 1
	}
	logrus.WithFields(logrus.Fields{
		"solver": sp.FreeSurfaceSolver,
		"steps":  nsteps,
		"dt":     sp.Dt,
	}).Info("starting simulation")
	for s := 0; s < nsteps; s++ {
		if err = m.Step(sp.Dt); err != nil {
			logrus.WithError(err).WithField("step", s).Fatal("step failed")
		}
		if (s+1)%report == 0 {
			logrus.WithFields(logrus.Fields{
				"step":   s + 1,
				"time":   float64(s+1) * sp.Dt,
				"etaMax": eta.MaxAbsInterior(),
			}).Info("progress")
		}
	}
	logrus.WithField("etaMax", eta.MaxAbsInterior()).Info("simulation finished")
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputFile", "I", "", "YAML file for input parameters like:\n\t- grid size\n\t- free-surface solver")
	RunCmd.Flags().BoolP("profile", "p", false, "write a CPU profile of the run")
}
