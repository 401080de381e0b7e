package common

import (
	"errors"
	"strings"
	"sync"
)

var ErrModulePaused = errors.New("module paused")

// Modules that can be halted independently.
const (
	ModuleCenter     = "center"
	ModuleSwap       = "swap"
	ModuleBond       = "bond"
	ModuleStaking    = "staking"
	ModuleLending    = "lending"
	ModuleRewards    = "rewards"
	ModuleCommitment = "commitment"
)

type PauseView interface {
	IsPaused(module string) bool
}

// Guard fails with ErrModulePaused when the module, or the whole center, is
// halted.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(ModuleCenter) || p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// Pauses is a concurrency-safe PauseView backed by a set of module names.
type Pauses struct {
	mu     sync.RWMutex
	halted map[string]bool
}

// NewPauses returns a view with the given modules halted.
func NewPauses(modules ...string) *Pauses {
	p := &Pauses{halted: make(map[string]bool)}
	for _, m := range modules {
		p.Set(m, true)
	}
	return p
}

// Set halts or resumes a module.
func (p *Pauses) Set(module string, halted bool) {
	module = strings.ToLower(strings.TrimSpace(module))
	if module == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if halted {
		p.halted[module] = true
		return
	}
	delete(p.halted, module)
}

// IsPaused implements PauseView.
func (p *Pauses) IsPaused(module string) bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.halted[strings.ToLower(strings.TrimSpace(module))]
}
