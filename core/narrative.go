package core

import (
	"fmt"

	"github.com/signalsfoundry/impact-simulator/model"
)

// Disclaimer closes every explanation.
const Disclaimer = "This is a simplified educational model, not a prediction of real-world effects."

// Explain turns a finished result into short narrative sentences. It only
// formats fields that are already computed.
func Explain(in model.SimulationInput, res model.SimulationResult) []string {
	body := fmt.Sprintf("The %s-wide %s body", formatDistance(in.Diameter), in.Composition)
	lines := make([]string, 0, 6)

	lines = append(lines, fmt.Sprintf("%s entered the atmosphere at %.1f km/s, %.0f° above the horizon.",
		body, in.Velocity, in.ApproachAngle))

	if alt := res.FragmentationAltitude; alt != nil {
		lines = append(lines, fmt.Sprintf("Aerodynamic stress peaked at %.1f MPa and broke it apart at %s altitude.",
			res.PeakDynamicPressure/1e6, formatDistance(*alt)))
	}

	fx := res.ImpactEffects
	switch res.Outcome {
	case model.OutcomeBurnup:
		lines = append(lines, "Ablation consumed more than 99% of its mass before it could reach the ground; nothing survived to cause surface damage.")
	case model.OutcomeAirburst:
		if alt := res.AirburstAltitude; alt != nil {
			lines = append(lines, fmt.Sprintf("The debris cloud disintegrated in an airburst at %s, releasing about %s.",
				formatDistance(*alt), formatYield(res.EnergyRelease)))
		}
		lines = append(lines, blastSentence(fx))
	case model.OutcomeLandImpact:
		lines = append(lines, fmt.Sprintf("It struck the ground at %.1f km/s with %s of its mass intact, releasing about %s.",
			res.ImpactVelocity/1000, formatMass(res.SurvivedMass), formatYield(res.EnergyRelease)))
		if fx.CraterDiameter != nil && fx.SeismicMagnitude != nil {
			lines = append(lines, fmt.Sprintf("The impact excavated a crater roughly %s across and shook the ground like a magnitude %.1f earthquake.",
				formatDistance(*fx.CraterDiameter), *fx.SeismicMagnitude))
		}
		lines = append(lines, blastSentence(fx))
	case model.OutcomeOceanImpact:
		if fx.EquivalentDiameter != nil {
			lines = append(lines, fmt.Sprintf("A remnant about %s across hit the ocean at %.1f km/s, releasing about %s.",
				formatDistance(*fx.EquivalentDiameter), res.ImpactVelocity/1000, formatYield(res.EnergyRelease)))
		}
		if fx.TsunamiHeight != nil && fx.TsunamiRadius != nil {
			lines = append(lines, fmt.Sprintf("It raised a tsunami with an initial height near %.0f m that stays dangerous out to %s.",
				*fx.TsunamiHeight, formatDistance(*fx.TsunamiRadius)))
		}
		lines = append(lines, blastSentence(fx))
	}

	return append(lines, Disclaimer)
}

func blastSentence(fx model.ImpactEffects) string {
	if fx.BlastRadius == nil || fx.ThermalRadius == nil {
		return "No significant blast effects are expected."
	}
	return fmt.Sprintf("Severe blast damage reaches %s, windows break out to %s, and thermal burns are possible within %s.",
		formatDistance(fx.BlastRadius.Severe), formatDistance(fx.BlastRadius.Light), formatDistance(*fx.ThermalRadius))
}

func formatDistance(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.1f km", m/1000)
	}
	return fmt.Sprintf("%.0f m", m)
}

func formatMass(kg float64) string {
	switch {
	case kg >= 1e9:
		return fmt.Sprintf("%.1f million tonnes", kg/1e9)
	case kg >= 1e3:
		return fmt.Sprintf("%.0f tonnes", kg/1e3)
	}
	return fmt.Sprintf("%.0f kg", kg)
}

func formatYield(mt float64) string {
	if mt >= 1 {
		return fmt.Sprintf("%.1f megatons of TNT", mt)
	}
	return fmt.Sprintf("%.1f kilotons of TNT", mt*1000)
}
