package rank

import "math"

// HubLevel grades a file by how many files import it.
type HubLevel string

const (
	HubNone     HubLevel = "none"
	HubLow      HubLevel = "low"
	HubMedium   HubLevel = "medium"
	HubHigh     HubLevel = "high"
	HubCritical HubLevel = "critical"
)

// Level thresholds on in-degree.
const (
	CriticalHubThreshold = 8
	HighHubThreshold     = 5
	MediumHubThreshold   = 3
	LowHubThreshold      = 2
)

// ClassifyHub returns the hub level for an in-degree.
func ClassifyHub(inDegree int) HubLevel {
	switch {
	case inDegree >= CriticalHubThreshold:
		return HubCritical
	case inDegree >= HighHubThreshold:
		return HubHigh
	case inDegree >= MediumHubThreshold:
		return HubMedium
	case inDegree >= LowHubThreshold:
		return HubLow
	default:
		return HubNone
	}
}

// HubScore weighs in-degree by a logarithmic out-degree factor, so a hub
// that also depends on many files ranks above a leaf hub of equal fan-in.
func HubScore(inDegree, outDegree int) float64 {
	return float64(inDegree) * (1 + math.Log1p(float64(outDegree)))
}
