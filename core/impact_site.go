package core

import (
	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/impact-simulator/model"
)

// referenceJulianDay fixes the Earth rotation angle used for the LLA→ECI→ECEF
// round trip. The ECEF result does not depend on it, but pinning it keeps the
// computation free of wall-clock input.
var referenceJulianDay = satellite.JDay(2000, 1, 1, 12, 0, 0)

// NewImpactSite places loc on the Earth and returns the surface point and the
// entry interface point directly above it, both in ECEF metres.
// go-satellite works in kilometres; we store metres in the model.
func NewImpactSite(loc model.Location) model.ImpactSite {
	return model.ImpactSite{
		Location:  loc,
		ECEF:      ecefAt(loc, 0),
		EntryECEF: ecefAt(loc, EntryInterfaceAltitude),
	}
}

func ecefAt(loc model.Location, altitude float64) model.Position {
	const kmToM = 1000.0
	coords := satellite.LatLong{
		Latitude:  loc.Lat * degToRad,
		Longitude: loc.Lon * degToRad,
	}
	eci := satellite.LLAToECI(coords, altitude/kmToM, referenceJulianDay)
	ecef := satellite.ECIToECEF(eci, satellite.ThetaG_JD(referenceJulianDay))
	return model.Position{
		X: ecef.X * kmToM,
		Y: ecef.Y * kmToM,
		Z: ecef.Z * kmToM,
	}
}
