// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package registry wires the Interface Table, Module Table, and Resolver
// together behind the section 6 public API (register_module,
// unregister_module, use_interfaces, unuse_interfaces, cleanup,
// error_string, memory_usage). It is the single explicit value a caller
// constructs and threads through a process's lifetime, replacing the
// original's process-wide IT/MT/RB globals per section 9's "Global
// singleton state" design note.
package registry

import (
	"github.com/hashicorp/go-hclog"

	"github.com/opentofu/modreg/internal/iface"
	"github.com/opentofu/modreg/internal/modtab"
	"github.com/opentofu/modreg/internal/regerr"
	"github.com/opentofu/modreg/internal/resolver"
)

// ModuleHandle identifies a registered module, returned by RegisterModule
// and consumed by every other per-module operation.
type ModuleHandle = modtab.Handle

// ModuleSpec is the argument bundle for RegisterModule, mirroring the
// register_module({comment, def, use, load_fn, unload_fn}) call from
// section 6.
type ModuleSpec struct {
	Comment  string
	Def      string
	Use      string
	LoadFn   func() error
	UnloadFn func() error
}

// Limits records the hard table capacities from section 3 that this build
// enforces. They are not runtime-configurable: the capacities (2047
// modules/interfaces, 63 provides, 127 static/live uses) are invariants of
// the specification itself, not tuning knobs, so Limits exists for
// introspection (e.g. a cmd/modreg diagnostic command reporting headroom)
// rather than as constructor input.
type Limits struct {
	MaxModules           int
	MaxProvidesPerModule int
	MaxStaticUses        int
	MaxLiveUses          int
	MaxInterfaces        int
}

// DefaultLimits returns the spec-mandated capacities.
func DefaultLimits() Limits {
	return Limits{
		MaxModules:           modtab.MaxModules,
		MaxProvidesPerModule: modtab.MaxProvidesPerModule,
		MaxStaticUses:        modtab.MaxStaticUses,
		MaxLiveUses:          modtab.MaxLiveUses,
		MaxInterfaces:        iface.MaxInterfaces,
	}
}

// Registry composes IT, MT, and the Resolver behind the public API.
type Registry struct {
	it  *iface.Table
	mt  *modtab.Table
	res *resolver.Resolver
	log hclog.Logger
}

// New constructs an empty Registry. A nil logger is replaced with
// hclog.NewNullLogger(), following the convention used throughout the
// table packages.
func New(log hclog.Logger) *Registry {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	named := log.Named("registry")
	it := iface.New(named)
	mt := modtab.New(it, named)
	res := resolver.New(it, mt, named)
	return &Registry{it: it, mt: mt, res: res, log: named}
}

// Limits reports the table capacities this Registry enforces.
func (r *Registry) Limits() Limits { return DefaultLimits() }

// RegisterModule implements register_module from section 6 / 4.3.
func (r *Registry) RegisterModule(spec ModuleSpec) (ModuleHandle, error) {
	h, err := r.mt.Register(spec.Def, spec.Use, spec.Comment, spec.LoadFn, spec.UnloadFn)
	if err != nil {
		return ModuleHandle{}, err
	}
	// Section 4.5.3's closing note: a registration made while a
	// resolution's top_use is still live (e.g. from inside a load_fn)
	// must have RB expanded to cover the new module/interface indices.
	// ExpandRB is a no-op when no resolution is currently live.
	r.res.ExpandRB(r.mt.Len(), r.it.Len())
	return h, nil
}

// UnregisterModule implements unregister_module from section 4.3. If the
// module is currently loaded, it is unloaded first (respecting the same
// RB-refcount and callback rules as any other unload) before its MT slot
// and provider registrations are freed; modtab itself has no resolver
// dependency; this composition lives here so internal/modtab stays a leaf
// package.
func (r *Registry) UnregisterModule(h ModuleHandle) error {
	if err := r.res.UnloadModule(h); err != nil {
		return err
	}
	return r.mt.Remove(h)
}

// UseInterfaces implements use_interfaces from section 4.5.1.
func (r *Registry) UseInterfaces(h ModuleHandle, useStr string) error {
	return r.res.UseInterfaces(h, useStr)
}

// UnuseInterfaces implements unuse_interfaces from section 4.5.6.
func (r *Registry) UnuseInterfaces(h ModuleHandle, useStr string) error {
	return r.res.UnuseInterfaces(h, useStr)
}

// Cleanup implements cleanup from section 4.5.6.
func (r *Registry) Cleanup() error {
	return r.res.Cleanup()
}

// ErrorString implements error_string(code) from section 6: a static,
// stable human-readable string for a negative error code, suitable for
// diffable upstream logs.
func ErrorString(code int) string {
	return regerr.Code(code).String()
}

// Bootstrap implements the load-then-root-ctrl handoff recovered from
// ce-main.c/ce-mod.h (SPEC_FULL section 5 item 3): it calls UseInterfaces
// for the root module and, on success, returns the ctrl closure passed in,
// unchanged; on failure it returns nil and the error. modreg does not
// invent a new callback type for this: ctrl is simply whatever the caller's
// closure captured, the same way the original treats ce_main_ctrl as an
// ordinary registered interface rather than core machinery.
func (r *Registry) Bootstrap(root ModuleHandle, useStr string, ctrl func()) (func(), error) {
	if err := r.UseInterfaces(root, useStr); err != nil {
		return nil, err
	}
	return ctrl, nil
}
