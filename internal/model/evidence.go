package model

// EvidenceLevel is an ordinal rating of support, E1 strongest
type EvidenceLevel string

const (
	E1 EvidenceLevel = "E1" // Strong empirical evidence (replicated, peer-reviewed)
	E2 EvidenceLevel = "E2" // Moderate empirical evidence
	E3 EvidenceLevel = "E3" // Strong theoretical support
	E4 EvidenceLevel = "E4" // Speculative reasoning
	E5 EvidenceLevel = "E5" // Opinion or forecast
	E6 EvidenceLevel = "E6" // Unsupported or contradicted
)

var EvidenceLevels = []EvidenceLevel{E1, E2, E3, E4, E5, E6}

// Rank returns 1 for E1 through 6 for E6, or 0 for an unknown level
func (e EvidenceLevel) Rank() int {
	for i, lvl := range EvidenceLevels {
		if lvl == e {
			return i + 1
		}
	}
	return 0
}

// Stronger reports whether e carries stronger support than other
func (e EvidenceLevel) Stronger(other EvidenceLevel) bool {
	a, b := e.Rank(), other.Rank()
	return a != 0 && (b == 0 || a < b)
}

// Label describes the level in words
func (e EvidenceLevel) Label() string {
	switch e {
	case E1:
		return "strong empirical"
	case E2:
		return "moderate empirical"
	case E3:
		return "strong theoretical"
	case E4:
		return "speculative"
	case E5:
		return "opinion"
	case E6:
		return "unsupported"
	default:
		return "unknown"
	}
}
