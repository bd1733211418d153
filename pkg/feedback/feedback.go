// Package feedback defines the contract for the two feedback roles a
// simulation pipeline plugs in: a Worker that emits observations into
// shared storage, and a Manager that loads, aggregates, and reports on
// them — grounded on the source's FeedbackManager abstract class.
package feedback

import (
	"context"
	"os"
	"strings"
)

// Role distinguishes the two concrete uses of a feedback component.
type Role int

const (
	RoleUnknown Role = iota
	RoleWorker
	RoleManager
)

func (r Role) String() string {
	switch r {
	case RoleWorker:
		return "worker"
	case RoleManager:
		return "manager"
	default:
		return "unknown"
	}
}

// Manager is the pluggable feedback contract. Concrete aggregators
// (e.g. a CG/AA backmapping selector) implement this against whatever
// domain data they read; this package only fixes the lifecycle.
type Manager interface {
	Load(ctx context.Context) error
	Aggregate(ctx context.Context) error
	Report(ctx context.Context) error
	Checkpoint(ctx context.Context) error
	Restore(ctx context.Context) error
	Test(ctx context.Context) error
}

// Base carries the identity fields every concrete Manager embeds,
// mirroring the source's constructor assertions (name non-empty, role
// restricted to Worker/Manager).
type Base struct {
	Role     Role
	Name     string
	Hostname string
}

// NewBase validates and constructs the shared identity fields.
func NewBase(role Role, name string) (Base, error) {
	if name == "" {
		return Base{}, errRequired("name")
	}
	if role != RoleWorker && role != RoleManager {
		return Base{}, errRequired("role must be Worker or Manager")
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	if i := strings.IndexByte(host, '.'); i >= 0 {
		host = host[:i]
	}
	return Base{Role: role, Name: name, Hostname: host}, nil
}

func (b Base) String() string {
	return "FeedbackManager(role=" + b.Role.String() + "; name=" + b.Name + "; host=" + b.Hostname + ")"
}

type errRequired string

func (e errRequired) Error() string { return "feedback: " + string(e) + " is required" }
