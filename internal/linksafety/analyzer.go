// Package linksafety scores the URLs found in a message using static domain
// heuristics and an optional reachability probe.
package linksafety

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/sentinel/internal/model"
)

// DefaultTimeout bounds a single reachability probe.
const DefaultTimeout = 5 * time.Second

const (
	patternPenalty     = 0.5
	bankingPenalty     = 0.3
	errorStatusPenalty = 0.7
	unreachablePenalty = 0.8
	parsePenalty       = 0.9
)

var suspiciousPatterns = compileAll(
	`tiny\.url`, `bit\.ly`, `t\.co`, `goo\.gl`,
	`shorturl`, `url\.short`, `link\.short`,
	`[0-9]{5,}`,
	`[a-z]{15,}\.[a-z]{2,}`,
)

var knownBanks = []string{
	"bankofamerica.com", "chase.com", "wellsfargo.com",
	"citibank.com", "hsbc.com", "icicibank.com",
	"hdfcbank.com", "axisbank.com", "sbi.co.in",
}

var bankingKeywords = []string{"bank", "secure", "login", "account", "verify"}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Prober reports the HTTP status of a URL.
type Prober interface {
	Probe(ctx context.Context, url string) (int, error)
}

// Analyzer scores links. It is safe for concurrent use.
type Analyzer struct {
	prober  Prober
	timeout time.Duration
}

// NewAnalyzer creates an analyzer. A nil prober skips reachability checks;
// a non-positive timeout uses DefaultTimeout.
func NewAnalyzer(prober Prober, timeout time.Duration) *Analyzer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Analyzer{prober: prober, timeout: timeout}
}

// AnalyzeText finds and scores every URL in text. It returns nil when the
// text contains no links.
func (a *Analyzer) AnalyzeText(ctx context.Context, text string) *model.LinkReport {
	return a.Analyze(ctx, FindURLs(text))
}

// Analyze scores urls one after another and summarizes the overall risk. It
// returns nil for an empty list. Probe failures lower a link's score but are
// never returned.
func (a *Analyzer) Analyze(ctx context.Context, urls []string) *model.LinkReport {
	if len(urls) == 0 {
		return nil
	}

	links := make([]model.LinkAnalysis, len(urls))
	for i, u := range urls {
		links[i] = a.analyzeLink(ctx, u)
	}

	return &model.LinkReport{Links: links, Overall: summarize(links)}
}

func (a *Analyzer) analyzeLink(ctx context.Context, raw string) model.LinkAnalysis {
	link := raw
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		link = "http://" + link
	}

	result := model.LinkAnalysis{URL: link, Issues: []string{}, SafetyScore: 1.0}

	domain, err := hostOf(link)
	if err != nil {
		result.Issues = append(result.Issues, fmt.Sprintf("Parsing error: %v", err))
		result.SafetyScore *= parsePenalty
		return result
	}

	for _, p := range suspiciousPatterns {
		if p.MatchString(domain) {
			result.IsSuspicious = true
			result.Issues = append(result.Issues, "Suspicious domain pattern: "+p.String())
			result.SafetyScore *= patternPenalty
		}
	}

	if !containsAny(domain, knownBanks) && containsAny(domain, bankingKeywords) {
		result.IsSuspicious = true
		result.Issues = append(result.Issues, "Banking-related domain that isn't a known bank")
		result.SafetyScore *= bankingPenalty
	}

	if a.prober != nil {
		probeCtx, cancel := context.WithTimeout(ctx, a.timeout)
		status, err := a.prober.Probe(probeCtx, link)
		cancel()
		switch {
		case err != nil:
			result.Issues = append(result.Issues, "URL is not accessible")
			result.SafetyScore *= unreachablePenalty
		case status >= 400:
			result.Issues = append(result.Issues, fmt.Sprintf("URL returns error status: %d", status))
			result.SafetyScore *= errorStatusPenalty
		}
	}

	return result
}

// hostOf returns the lower-cased host of link. A malformed escape elsewhere
// in the URL must not hide the domain, so when strict parsing fails the host
// is the text between "://" and the first "/", "?" or "#".
func hostOf(link string) (string, error) {
	parsed, err := url.Parse(link)
	if err == nil {
		return strings.ToLower(parsed.Host), nil
	}

	_, rest, ok := strings.Cut(link, "://")
	if !ok {
		return "", err
	}
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "", err
	}
	return strings.ToLower(rest), nil
}

func summarize(links []model.LinkAnalysis) model.LinkOverview {
	overview := model.LinkOverview{TotalLinks: len(links), RiskLevel: model.RiskLow}
	for _, l := range links {
		if l.IsSuspicious {
			overview.SuspiciousLinks++
		}
	}
	if overview.SuspiciousLinks == 0 {
		return overview
	}

	overview.IsSuspicious = true
	overview.RiskLevel = model.RiskMedium
	if float64(overview.SuspiciousLinks)/float64(overview.TotalLinks) > 0.5 {
		overview.RiskLevel = model.RiskHigh
	}
	return overview
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
