// Package naming supplies filesystem paths for the workspace,
// per-simulation directories, and per-job-type success/failure flag
// names. It replaces the original process-wide MuMMI_NamingUtils
// classmethod singleton with an explicit Service object threaded
// through JobTracker construction, per the design notes on global
// mutable state. The package keeps no process-lifetime default
// instance: every caller, the CLI included, constructs its own Service
// with New or NewFromEnv.
package naming

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultStatusFlags are the fixed per-job-type success/failure marker
// file names a running simulation writes into its own workdir.
var defaultStatusFlags = map[string][2]string{
	"createsim":   {"createsims_success", "createsims_failure"},
	"backmapping": {"backmapping_success", "backmapping_failure"},
	"cg":          {"cg_success", "cg_failure"},
	"aa":          {"aa_success", "aa_failure"},
}

// Service resolves the directory layout described by the filesystem
// layout in the external interfaces section: a root R containing
// workspace/, redis/, flux/, sims-<type>/<simname>/, macro/, patches/,
// and feedback-<type>2<next>/ directories.
type Service struct {
	root        string
	resources   string
	app         string
	statusFlags map[string][2]string
	simDirs     map[string]string // job-type bucket -> directory name under root
}

// New constructs a Service from explicit roots, bypassing environment
// variables entirely — the preferred construction path for tests and
// for callers that already resolved their configuration.
func New(root, resources, app string) *Service {
	flags := make(map[string][2]string, len(defaultStatusFlags))
	for k, v := range defaultStatusFlags {
		flags[k] = v
	}
	return &Service{
		root:        root,
		resources:   resources,
		app:         app,
		statusFlags: flags,
		simDirs: map[string]string{
			"cg": "sims-cg",
			"aa": "sims-aa",
		},
	}
}

// NewFromEnv mirrors MUMMI_ROOT/MUMMI_RESOURCES/MUMMI_APP env-var
// initialization, the sole external inputs named by the spec.
func NewFromEnv() (*Service, error) {
	root := os.Getenv("MUMMI_ROOT")
	resources := os.Getenv("MUMMI_RESOURCES")
	app := os.Getenv("MUMMI_APP")
	if root == "" || resources == "" || app == "" {
		return nil, fmt.Errorf("naming: MUMMI_ROOT, MUMMI_RESOURCES and MUMMI_APP must all be set")
	}
	if st, err := os.Stat(resources); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("naming: MUMMI_RESOURCES %q does not exist", resources)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("naming: cannot create MUMMI_ROOT %q: %w", root, err)
	}
	return New(root, resources, app), nil
}

func (s *Service) Root() string      { return s.root }
func (s *Service) Resources() string { return s.resources }
func (s *Service) App() string       { return s.app }

// DirRoot returns "{root}/<name>" for the fixed top-level directories
// (workspace, redis, flux, macro, patches, feedback-*).
func (s *Service) DirRoot(name string) string {
	return filepath.Join(s.root, name)
}

// DirSim returns the per-simulation workdir for a given job-type
// bucket ("cg", "aa", or a caller-supplied override via
// config.JobConfig.DirSim in the job description).
func (s *Service) DirSim(bucket, simname string) string {
	dir, ok := s.simDirs[bucket]
	if !ok {
		dir = "sims-" + bucket
	}
	return filepath.Join(s.root, dir, simname)
}

// StatusFlags returns the (success, failure) marker filenames for a
// job type. Unregistered types fall back to "<type>_success" /
// "<type>_failure", matching the source's convention.
func (s *Service) StatusFlags(jobType string) (success, failure string) {
	if pair, ok := s.statusFlags[jobType]; ok {
		return pair[0], pair[1]
	}
	return jobType + "_success", jobType + "_failure"
}

// RegisterStatusFlags lets a caller declare flag names for a job type
// not in the built-in set, instead of silently falling back.
func (s *Service) RegisterStatusFlags(jobType, success, failure string) {
	s.statusFlags[jobType] = [2]string{success, failure}
}
