// Package params reads the YAML simulation parameter file.
package params

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type SimulationParameters struct {
	Title     string  `yaml:"Title"`
	Nx        int     `yaml:"Nx"`
	Ny        int     `yaml:"Ny"`
	Nz        int     `yaml:"Nz"`
	Lx        float64 `yaml:"Lx"`
	Ly        float64 `yaml:"Ly"`
	Lz        float64 `yaml:"Lz"`
	TopologyX string  `yaml:"TopologyX"` // Periodic, Bounded or Flat
	TopologyY string  `yaml:"TopologyY"`

	Gravity   float64 `yaml:"Gravity"`
	Dt        float64 `yaml:"Dt"`
	FinalTime float64 `yaml:"FinalTime"`
	Chi       float64 `yaml:"Chi"`
	Nu        float64 `yaml:"Nu"`
	Kappa     float64 `yaml:"Kappa"`

	FreeSurfaceSolver string  `yaml:"FreeSurfaceSolver"` // SplitExplicit or Implicit
	Integrator        string  `yaml:"Integrator"`        // ForwardBackward or AdamsBashforth3
	AB3Beta           float64 `yaml:"AB3Beta"`
	FixedSubsteps     int     `yaml:"FixedSubsteps"`
	BarotropicCFL     float64 `yaml:"BarotropicCFL"`

	InitialAmplitude float64 `yaml:"InitialAmplitude"` // surface wave amplitude
	InitialModeX     int     `yaml:"InitialModeX"`     // wavenumber of the initial surface
}

func (sp *SimulationParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, sp); err != nil {
		return err
	}
	return sp.Validate()
}

func (sp *SimulationParameters) Validate() error {
	if sp.Nx < 1 || sp.Ny < 1 || sp.Nz < 1 {
		return fmt.Errorf("grid size must be positive in every direction, got (%d,%d,%d)", sp.Nx, sp.Ny, sp.Nz)
	}
	if sp.Lx <= 0 || sp.Ly <= 0 || sp.Lz <= 0 {
		return fmt.Errorf("domain extent must be positive, got (%g,%g,%g)", sp.Lx, sp.Ly, sp.Lz)
	}
	if sp.Gravity <= 0 {
		return fmt.Errorf("gravity must be positive, got %g", sp.Gravity)
	}
	if sp.Dt <= 0 || sp.FinalTime <= 0 {
		return fmt.Errorf("Dt and FinalTime must be positive, got %g, %g", sp.Dt, sp.FinalTime)
	}
	switch sp.FreeSurfaceSolver {
	case "", "SplitExplicit", "Implicit":
	default:
		return fmt.Errorf("unknown free-surface solver %q, want SplitExplicit or Implicit", sp.FreeSurfaceSolver)
	}
	switch sp.Integrator {
	case "", "ForwardBackward", "AdamsBashforth3":
	default:
		return fmt.Errorf("unknown barotropic integrator %q, want ForwardBackward or AdamsBashforth3", sp.Integrator)
	}
	return nil
}

func (sp *SimulationParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("[%d x %d x %d]\t\t= Grid size\n", sp.Nx, sp.Ny, sp.Nz)
	fmt.Printf("[%g x %g x %g]\t= Domain extent\n", sp.Lx, sp.Ly, sp.Lz)
	fmt.Printf("%8.5f\t\t= Dt\n", sp.Dt)
	fmt.Printf("%8.5f\t\t= FinalTime\n", sp.FinalTime)
	fmt.Printf("[%s]\t\t= Free-surface solver\n", sp.FreeSurfaceSolver)
	fmt.Printf("[%s]\t\t= Barotropic integrator\n", sp.Integrator)
}
