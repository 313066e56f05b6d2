package model

// RiskLevel grades the overall danger of the links found in a message.
type RiskLevel string

// Risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// LinkAnalysis is the verdict for a single URL.
type LinkAnalysis struct {
	URL          string   `json:"url"`
	Issues       []string `json:"issues"`
	SafetyScore  float64  `json:"safety_score"`
	IsSuspicious bool     `json:"is_suspicious"`
}

// LinkOverview summarizes every analyzed link.
type LinkOverview struct {
	RiskLevel       RiskLevel `json:"risk_level"`
	TotalLinks      int       `json:"total_links"`
	SuspiciousLinks int       `json:"suspicious_links"`
	IsSuspicious    bool      `json:"is_suspicious"`
}

// LinkReport is the result of analyzing a set of URLs.
type LinkReport struct {
	Links   []LinkAnalysis `json:"links"`
	Overall LinkOverview   `json:"overall"`
}
