// Package validate checks composed prompt artifacts against structural
// rules. Findings are advisory by default; in strict mode a critical
// finding fails the run.
package validate

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ErrValidationFailed is returned in strict mode when any critical
// finding is present.
var ErrValidationFailed = errors.New("validation failed")

// Finding is a single validation result.
type Finding struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
}

// PatternRule is a configurable validation rule. When Require is false the
// rule reports every line matching Pattern; when true it reports the
// absence of any match.
type PatternRule struct {
	Name     string   `yaml:"name"`
	Pattern  string   `yaml:"pattern"`
	Require  bool     `yaml:"require"`
	Severity Severity `yaml:"severity"`
	Message  string   `yaml:"message"`
}

// Validator runs the built-in rules plus any configured pattern rules.
type Validator struct {
	rules  []PatternRule
	logger *slog.Logger
}

// New creates a validator with the given configured rules.
func New(rules []PatternRule, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{rules: rules, logger: logger}
}

// Validate checks the composed text and returns all findings. A clean
// artifact yields an empty, non-nil slice.
func (v *Validator) Validate(text string) ([]Finding, error) {
	findings := []Finding{}

	findings = append(findings, checkLeftoverMarkers(text)...)
	findings = append(findings, checkStructure(text)...)

	for _, rule := range v.rules {
		ruleFindings, err := applyPatternRule(rule, text)
		if err != nil {
			return nil, err
		}
		findings = append(findings, ruleFindings...)
	}

	for _, f := range findings {
		v.logger.Debug("validation finding",
			slog.String("rule", f.Rule),
			slog.String("severity", string(f.Severity)),
			slog.Int("line", f.Line))
	}

	return findings, nil
}

// HasCritical reports whether any finding is critical.
func HasCritical(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// checkLeftoverMarkers flags unresolved reference syntax that survived
// composition. Any leftover means a marker was never substituted.
func checkLeftoverMarkers(text string) []Finding {
	var findings []Finding
	for i, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "<!-- REFERENCE:") {
			findings = append(findings, Finding{
				Severity: SeverityCritical,
				Rule:     "unresolved-marker",
				Message:  fmt.Sprintf("unresolved reference marker: %s", strings.TrimSpace(line)),
				Line:     i + 1,
			})
		}
	}
	return findings
}

// applyPatternRule evaluates one configured rule against the text.
func applyPatternRule(rule PatternRule, text string) ([]Finding, error) {
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %s: invalid pattern: %w", rule.Name, err)
	}

	severity := rule.Severity
	if severity == "" {
		severity = SeverityMedium
	}

	if rule.Require {
		if !re.MatchString(text) {
			msg := rule.Message
			if msg == "" {
				msg = fmt.Sprintf("required pattern %q not found", rule.Pattern)
			}
			return []Finding{{Severity: severity, Rule: rule.Name, Message: msg}}, nil
		}
		return nil, nil
	}

	var findings []Finding
	for i, line := range strings.Split(text, "\n") {
		if re.MatchString(line) {
			msg := rule.Message
			if msg == "" {
				msg = fmt.Sprintf("line matches forbidden pattern %q", rule.Pattern)
			}
			findings = append(findings, Finding{
				Severity: severity,
				Rule:     rule.Name,
				Message:  msg,
				Line:     i + 1,
			})
		}
	}
	return findings, nil
}
