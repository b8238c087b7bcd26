// Command simulate runs one atmospheric entry scenario locally and prints the
// result as a text summary or JSON.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/signalsfoundry/impact-simulator/core"
	"github.com/signalsfoundry/impact-simulator/internal/api"
	"github.com/signalsfoundry/impact-simulator/kb"
	"github.com/signalsfoundry/impact-simulator/model"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	diameter := fs.Float64("diameter", 20, "body diameter in metres")
	composition := fs.String("composition", string(model.CompositionRocky), "rocky | metallic | carbonaceous")
	velocity := fs.Float64("velocity", 19, "entry velocity in km/s")
	angle := fs.Float64("angle", 45, "approach angle in degrees above the horizon")
	lat := fs.Float64("lat", 0, "impact latitude in degrees")
	lon := fs.Float64("lon", 0, "impact longitude in degrees")
	ocean := fs.Bool("ocean", false, "impact site is ocean")
	preset := fs.String("preset", "", "run a named preset instead of the flag scenario")
	presetsFile := fs.String("presets-file", "", "JSON file of extra presets")
	list := fs.Bool("list", false, "list presets and exit")
	materials := fs.Bool("materials", false, "print the material table and exit")
	asJSON := fs.Bool("json", false, "print the full result as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	presets, err := kb.NewWithDefaults(kb.WithValidator(api.ValidateSimulationInput))
	if err != nil {
		fmt.Fprintf(stderr, "simulate: %v\n", err)
		return 1
	}
	if *presetsFile != "" {
		if _, err := presets.LoadFile(*presetsFile); err != nil {
			fmt.Fprintf(stderr, "simulate: %v\n", err)
			return 1
		}
	}

	if *materials {
		printMaterials(stdout)
		return 0
	}

	if *list {
		for _, p := range presets.List() {
			fmt.Fprintf(stdout, "%-16s %s\n", p.ID, p.Name)
		}
		return 0
	}

	in := model.SimulationInput{
		Diameter:       *diameter,
		Composition:    model.Composition(strings.ToLower(*composition)),
		Velocity:       *velocity,
		ApproachAngle:  *angle,
		ImpactLocation: model.Location{Lat: *lat, Lon: *lon, IsOcean: *ocean},
	}
	if *preset != "" {
		p, err := presets.Get(*preset)
		if err != nil {
			fmt.Fprintf(stderr, "simulate: %v\n", err)
			return 1
		}
		in = p.Input
	}
	if err := api.ValidateSimulationInput(in); err != nil {
		fmt.Fprintf(stderr, "simulate: %v\n", err)
		return 2
	}

	res, err := core.Simulate(in)
	if err != nil {
		fmt.Fprintf(stderr, "simulate: %v\n", err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fmt.Fprintf(stderr, "simulate: %v\n", err)
			return 1
		}
		return 0
	}
	printSummary(stdout, in, res)
	return 0
}

func printMaterials(w io.Writer) {
	table := core.Materials()
	fmt.Fprintf(w, "%-14s %8s %10s %6s %8s\n", "composition", "density", "strength", "Cd", "ablation")
	for _, c := range model.Compositions {
		m := table[c]
		fmt.Fprintf(w, "%-14s %8.0f %10.3g %6.2f %8.1f\n", c, m.Density, m.Strength, m.DragCoefficient, m.AblationCoefficient)
	}
}

func printSummary(w io.Writer, in model.SimulationInput, res model.SimulationResult) {
	fmt.Fprintf(w, "Outcome:        %s\n", res.Outcome)
	fmt.Fprintf(w, "Energy:         %.4g Mt TNT (%.4g J)\n", res.EnergyRelease, res.ImpactEnergy)
	fmt.Fprintf(w, "Survived mass:  %.4g kg\n", res.SurvivedMass)
	fmt.Fprintf(w, "Impact speed:   %.2f km/s\n", res.ImpactVelocity/1000)
	if res.FragmentationAltitude != nil {
		fmt.Fprintf(w, "Fragmentation:  %.1f km\n", *res.FragmentationAltitude/1000)
	}
	if res.AirburstAltitude != nil {
		fmt.Fprintf(w, "Airburst:       %.1f km\n", *res.AirburstAltitude/1000)
	}
	fx := res.ImpactEffects
	if fx.CraterDiameter != nil {
		fmt.Fprintf(w, "Crater:         %.0f m\n", *fx.CraterDiameter)
	}
	if fx.BlastRadius != nil {
		fmt.Fprintf(w, "Blast radii:    %.1f / %.1f / %.1f km (20/5/1 psi)\n",
			fx.BlastRadius.Severe/1000, fx.BlastRadius.Moderate/1000, fx.BlastRadius.Light/1000)
	}
	if fx.ThermalRadius != nil {
		fmt.Fprintf(w, "Thermal radius: %.1f km\n", *fx.ThermalRadius/1000)
	}
	if fx.SeismicMagnitude != nil {
		fmt.Fprintf(w, "Seismic:        M%.1f\n", *fx.SeismicMagnitude)
	}
	if fx.TsunamiHeight != nil && fx.TsunamiRadius != nil {
		fmt.Fprintf(w, "Tsunami:        %.0f m, dangerous to %.0f km\n", *fx.TsunamiHeight, *fx.TsunamiRadius/1000)
	}
	fmt.Fprintf(w, "Trajectory:     %d samples\n\n", len(res.Trajectory))
	for _, line := range res.Explanation {
		fmt.Fprintln(w, line)
	}
}
