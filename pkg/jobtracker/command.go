package jobtracker

import (
	"strings"

	"github.com/llnl/mummi-workflow-core/pkg/errors"
)

const preamble = "ulimit -m 28 10485760\n" +
	"echo \"date:\" `date`\n" +
	"echo \"host:\" `hostname`\n" +
	"echo \"pwd: \" `pwd`\n" +
	"echo \"uri:  \" $FLUX_URI\n\n"

// Command renders the per-bundle launch script: a fixed diagnostic
// preamble followed by the job description's `script` template,
// resolved against {simname}, {timestamp} and any user-defined
// `variables` — see script_template.go for the expression language.
// Only bundle_size == 1 is currently supported, matching the source's
// explicit assertion.
func (t *Tracker) Command(simNames []string) (string, error) {
	if len(simNames) != t.bundleSize {
		return "", errors.NewError().WithCode(errors.InvalidArgument).
			WithMessagef("simname list (%d) must match bundle_size (%d)", len(simNames), t.bundleSize)
	}
	if t.bundleSize != 1 {
		return "", errors.NewError().WithCode(errors.InvalidOperation).
			WithMessage("currently only bundle_size of 1 is supported")
	}
	simname := simNames[0]

	scope := defaultScope(simname)

	for name, val := range t.cfg.Variables {
		if val == nil {
			continue
		}
		rendered, err := renderValue(val, scope)
		if err != nil {
			return "", errors.NewError().WithCode(errors.InvalidArgument).
				WithMessagef("failed to render variable %q", name).WithError(err)
		}
		scope[name] = rendered
	}

	body, err := renderValue(t.cfg.Script, scope)
	if err != nil {
		return "", errors.NewError().WithCode(errors.InvalidArgument).
			WithMessage("failed to render script body").WithError(err)
	}

	var sb strings.Builder
	sb.WriteString(preamble)
	sb.WriteString(body)
	return sb.String(), nil
}
