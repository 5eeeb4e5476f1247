// Package compose assembles a final prompt artifact from a root template
// and a directory of reusable fragments.
package compose

import (
	"fmt"
	"log/slog"

	"github.com/c360studio/promptforge/fragment"
	"github.com/c360studio/promptforge/template"
	"github.com/c360studio/promptforge/validate"
)

// Phase is a stage of a composition run. A run moves strictly forward:
// Scanning, Resolving, Composing, Validating, then Done; failure stops it
// at the phase where the error occurred. Composing itself cannot fail
// once inputs are resolved, since it is pure text splicing.
type Phase string

const (
	PhaseScanning   Phase = "scanning"
	PhaseResolving  Phase = "resolving"
	PhaseComposing  Phase = "composing"
	PhaseValidating Phase = "validating"
	PhaseDone       Phase = "done"
)

// Options configures a Composer.
type Options struct {
	// PartsDir is the component root directory.
	PartsDir string

	// MaxDepth bounds nested fragment resolution.
	MaxDepth int

	// Annotate inserts <!-- SOURCE: path --> provenance comments before
	// each substituted fragment. Off by default so the splice is
	// byte-exact.
	Annotate bool

	// Validate enables the validation pass.
	Validate bool

	// Strict makes any critical finding fail the run.
	Strict bool

	// Rules are configured validation rules applied on top of the
	// built-in ones.
	Rules []validate.PatternRule

	Logger *slog.Logger
}

// Result is the outcome of one composition run. The Composer hands the
// caller its own copy; nothing in it is shared with later runs.
type Result struct {
	// Output is the final assembled text.
	Output string

	// Phase is the phase the run terminated in: PhaseDone on success,
	// otherwise the phase where the error occurred.
	Phase Phase

	// FragmentsResolved counts substitutions, not unique fragments.
	FragmentsResolved int

	// Manifest maps fragment path to resolved byte length.
	Manifest map[string]int

	// Trace lists reference edges in resolution order.
	Trace []string

	// Parts lists every substitution in resolution order.
	Parts []fragment.ResolvedPart

	// Findings holds the validation results. Empty and non-nil after a
	// clean validating run; nil when validation was not requested.
	Findings []validate.Finding
}

// Composer assembles templates. It holds configuration only; each Compose
// call builds and discards its own resolution state, so composers are safe
// to reuse across templates.
type Composer struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Composer.
func New(opts Options) *Composer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = fragment.DefaultMaxDepth
	}
	return &Composer{opts: opts, logger: logger}
}

// Compose runs one full composition of the template at templatePath.
// On error the returned Result still carries the phase reached and any
// partial trace, but never partial output text.
func (c *Composer) Compose(templatePath string) (*Result, error) {
	res := &Result{Phase: PhaseScanning}

	tpl, err := template.Load(templatePath)
	if err != nil {
		return res, err
	}
	c.logger.Debug("scanned template",
		slog.String("path", templatePath),
		slog.Int("markers", len(tpl.Markers)))

	res.Phase = PhaseResolving
	resolver := fragment.NewResolver(c.opts.PartsDir, c.opts.MaxDepth, c.logger)
	stack := []string{templatePath}

	out, err := template.Splice(tpl.Raw, tpl.Markers, func(m template.Marker) (string, error) {
		f, err := resolver.Resolve(m, templatePath, stack)
		if err != nil {
			return "", err
		}
		if c.opts.Annotate {
			return annotate(m, f), nil
		}
		return f.Resolved, nil
	})

	res.FragmentsResolved = resolver.FragmentsResolved()
	res.Manifest = resolver.Manifest()
	res.Trace = resolver.Trace()
	res.Parts = resolver.Parts()

	if err != nil {
		return res, err
	}

	// Splicing happened inside the resolve pass; entering this phase
	// means the output text is final.
	res.Phase = PhaseComposing
	res.Output = out

	if c.opts.Validate {
		res.Phase = PhaseValidating
		v := validate.New(c.opts.Rules, c.logger)
		findings, err := v.Validate(out)
		if err != nil {
			return res, err
		}
		findings = append(findings, checkTierOrder(res.Parts)...)
		res.Findings = findings

		if c.opts.Strict && validate.HasCritical(findings) {
			return res, fmt.Errorf("%w: critical findings present", validate.ErrValidationFailed)
		}
	}

	res.Phase = PhaseDone
	return res, nil
}

// annotate prefixes a resolved fragment with its provenance comments, the
// way hand-assembled prompts carried them.
func annotate(m template.Marker, f *fragment.Fragment) string {
	header := ""
	if m.Description != "" {
		header = fmt.Sprintf("<!-- %s -->\n", m.Description)
	}
	return fmt.Sprintf("%s<!-- SOURCE: %s -->\n%s", header, f.Path, f.Resolved)
}

// checkTierOrder warns when dynamic content precedes static content in
// the composed artifact. Providers cache the stable prefix of a prompt;
// a dynamic fragment ahead of static ones breaks that layout.
func checkTierOrder(parts []fragment.ResolvedPart) []validate.Finding {
	var findings []validate.Finding
	dynamicSeen := ""

	for _, p := range parts {
		switch p.Tier {
		case "dynamic":
			dynamicSeen = p.Path
		case "static":
			if dynamicSeen != "" {
				findings = append(findings, validate.Finding{
					Severity: validate.SeverityMedium,
					Rule:     "tier-order",
					Message: fmt.Sprintf("static fragment %s follows dynamic fragment %s; keep static content first",
						p.Path, dynamicSeen),
				})
			}
		}
	}

	return findings
}
