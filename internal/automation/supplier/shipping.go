package supplier

import "strings"

// ShippingZone groups Indonesian provinces into one of seven freight
// zones, per spec.md §4.4's archipelago shipping-cost model. Cross-zone
// freight is disproportionately more expensive than same-zone freight
// because inter-island legs require sea or air transfer.
type ShippingZone int

const (
	ZoneJakarta ShippingZone = iota
	ZoneJavaOther
	ZoneSumatra
	ZoneKalimantan
	ZoneSulawesi
	ZoneBaliNusa
	ZoneEasternIndonesia
	zoneCount
)

var provinceZone = map[string]ShippingZone{
	"DKI Jakarta":        ZoneJakarta,
	"Banten":             ZoneJavaOther,
	"West Java":          ZoneJavaOther,
	"Central Java":       ZoneJavaOther,
	"East Java":          ZoneJavaOther,
	"Yogyakarta":         ZoneJavaOther,
	"North Sumatra":      ZoneSumatra,
	"West Sumatra":       ZoneSumatra,
	"South Sumatra":      ZoneSumatra,
	"Riau":               ZoneSumatra,
	"Lampung":            ZoneSumatra,
	"West Kalimantan":    ZoneKalimantan,
	"East Kalimantan":    ZoneKalimantan,
	"South Kalimantan":   ZoneKalimantan,
	"North Sulawesi":     ZoneSulawesi,
	"South Sulawesi":     ZoneSulawesi,
	"Bali":               ZoneBaliNusa,
	"West Nusa Tenggara": ZoneBaliNusa,
	"East Nusa Tenggara": ZoneBaliNusa,
	"Papua":              ZoneEasternIndonesia,
	"Maluku":             ZoneEasternIndonesia,
}

// ZoneOf resolves a province name to its shipping zone. Unknown or blank
// provinces default to ZoneJavaOther, the median-cost zone, rather than
// failing the calculation outright.
func ZoneOf(province string) ShippingZone {
	if z, ok := provinceZone[strings.TrimSpace(province)]; ok {
		return z
	}
	return ZoneJavaOther
}

// zoneRateMatrix[from][to] is the per-kg base freight rate in rupiah for
// a shipment moving between two zones. Same-zone legs are cheapest;
// legs touching ZoneEasternIndonesia are the most expensive because of
// the added air-freight leg.
var zoneRateMatrix = [7][7]float64{
	/* Jakarta    */ {25000, 35000, 45000, 55000, 65000, 50000, 85000},
	/* JavaOther  */ {35000, 30000, 40000, 50000, 60000, 45000, 80000},
	/* Sumatra    */ {45000, 40000, 35000, 60000, 70000, 55000, 90000},
	/* Kalimantan */ {55000, 50000, 60000, 40000, 50000, 60000, 75000},
	/* Sulawesi   */ {65000, 60000, 70000, 50000, 45000, 55000, 70000},
	/* BaliNusa   */ {50000, 45000, 55000, 60000, 55000, 35000, 65000},
	/* Eastern    */ {85000, 80000, 90000, 75000, 70000, 65000, 60000},
}

// RateFor returns the per-kg freight rate for a shipment from the
// supplier's zone to the destination zone.
func RateFor(from, to ShippingZone) float64 {
	return zoneRateMatrix[from][to]
}

// VolumetricWeightKg applies the standard volumetric-weight divisor
// (length×width×height in cm, converted to m³, ×167) and returns the
// greater of volumetric and actual weight, per Indonesian courier
// tariffs.
func VolumetricWeightKg(lengthCm, widthCm, heightCm, actualWeightKg float64) float64 {
	volumeM3 := (lengthCm * widthCm * heightCm) / 1_000_000
	volumetric := volumeM3 * 167
	if volumetric > actualWeightKg {
		return volumetric
	}
	return actualWeightKg
}

// SeasonalShippingMultiplier adjusts freight for known seasonal demand
// spikes: the year-end holiday rush, Chinese New Year import surge, and
// the pre-Lebaran rush all congest carrier networks and raise rates.
func SeasonalShippingMultiplier(month int) float64 {
	switch month {
	case 12, 1: // year-end / New Year rush
		return 1.20
	case 2: // Chinese New Year import surge
		return 1.10
	case 4, 5: // pre-Lebaran rush
		return 1.15
	default:
		return 1.0
	}
}

// EstimateShippingCost computes the total freight cost for a shipment
// of quantity units between two provinces, including volumetric
// weight, seasonal surcharge, a bulk discount for large orders, and a
// minimum floor per shipment.
func EstimateShippingCost(fromProvince, toProvince string, lengthCm, widthCm, heightCm, actualWeightKg float64, quantity int, month int) float64 {
	if quantity <= 0 {
		quantity = 1
	}

	from := ZoneOf(fromProvince)
	to := ZoneOf(toProvince)
	rate := RateFor(from, to)

	unitWeight := VolumetricWeightKg(lengthCm, widthCm, heightCm, actualWeightKg)
	totalWeight := unitWeight * float64(quantity)

	cost := rate * totalWeight * SeasonalShippingMultiplier(month)
	if quantity > 1000 {
		cost *= 0.90 // bulk shipment discount
	}
	if cost < 20000 {
		cost = 20000 // minimum shipment floor
	}
	return cost
}
