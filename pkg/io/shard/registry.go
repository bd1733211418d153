// Package shard implements the sharded-KV IO backend: a pool of N
// servers declared in a shared registry file, with each process
// binding exactly one "local" server at startup via a cooperative file
// lock around the registry, grounded on the source's
// bind_global_redis/bind_local_redis pair.
package shard

import (
	"bufio"
	"context"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/llnl/mummi-workflow-core/pkg/logger/log"
)


// Registry resolves the set of shard servers and this process's local
// binding among them.
type Registry struct {
	registryFile string // "{root}/redis/all_servers.txt"
	bindingFile  string // "/var/tmp/mummi/server.txt" equivalent
	lockTimeout  time.Duration
}

func NewRegistry(registryFile, bindingFile string, lockTimeout time.Duration) *Registry {
	if lockTimeout <= 0 {
		lockTimeout = 10 * time.Second
	}
	return &Registry{registryFile: registryFile, bindingFile: bindingFile, lockTimeout: lockTimeout}
}

// Servers reads the registry file: one "host port" pair per line,
// returned as "host:port" addresses. A line that is already a single
// "host:port" token is returned as is.
func (r *Registry) Servers() ([]string, error) {
	f, err := os.Open(r.registryFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "shard: open registry")
	}
	defer f.Close()

	var servers []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if f := strings.Fields(line); len(f) == 2 {
			line = f[0] + ":" + f[1]
		}
		if line != "" {
			servers = append(servers, line)
		}
	}
	return servers, sc.Err()
}

// BindGlobal appends this server to the shared registry under a
// bounded-wait cooperative lock.
func (r *Registry) BindGlobal(hostPort string) error {
	if err := os.MkdirAll(dirOf(r.registryFile), 0o755); err != nil {
		return errors.Wrap(err, "shard: mkdir registry dir")
	}
	lk := flock.New(r.registryFile + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), r.lockTimeout)
	defer cancel()
	locked, err := lk.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil || !locked {
		return errors.Wrap(err, "shard: failed to acquire registry lock")
	}
	defer lk.Unlock()

	f, err := os.OpenFile(r.registryFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "shard: open registry for append")
	}
	defer f.Close()
	_, err = f.WriteString(hostPort + "\n")
	return err
}

// BindLocal reads the registry, reuses the prior local binding if
// still present, else picks one uniformly at random and persists the
// choice. The registry is read before any lock is taken; the binding
// decision and its persistence run under a bounded-wait cooperative
// lock on the binding file, so concurrent process starts serialize on
// that decision.
func (r *Registry) BindLocal() (string, error) {
	servers, err := r.Servers()
	if err != nil {
		return "", err
	}
	if len(servers) == 0 {
		return "", errors.New("shard: registry file is empty or missing")
	}

	if err := os.MkdirAll(dirOf(r.bindingFile), 0o755); err != nil {
		return "", errors.Wrap(err, "shard: mkdir binding dir")
	}
	lk := flock.New(r.bindingFile + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), r.lockTimeout)
	defer cancel()
	locked, err := lk.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil || !locked {
		return "", errors.Wrap(err, "shard: failed to acquire binding lock")
	}
	defer lk.Unlock()

	if prior, err := os.ReadFile(r.bindingFile); err == nil {
		p := strings.TrimSpace(string(prior))
		for _, s := range servers {
			if s == p {
				log.Debugf("shard: reusing prior binding %s", p)
				return p, nil
			}
		}
	}

	chosen := servers[rand.Intn(len(servers))]
	if err := os.WriteFile(r.bindingFile, []byte(chosen), 0o644); err != nil {
		return "", errors.Wrap(err, "shard: persist binding")
	}
	log.Infof("shard: bound local server %s", chosen)
	return chosen, nil
}

func dirOf(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return "."
	}
	return p[:idx]
}
