package compiler

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// probeSpec is the fixed list of toolchains this service knows about,
// in the order spec.md §6 lists them: C is probed first, matching the
// original judge's primary language.
type probeSpec struct {
	language       Language
	compilerBin    string
	runtimeBin     string
	versionArgs    []string
	extensions     []string
	defaultArgs    []string
	minGoVersion   string
	toolchainFlags []string
}

var probeOrder = []probeSpec{
	{language: LangC, compilerBin: "gcc", versionArgs: []string{"--version"}, extensions: []string{".c"}, defaultArgs: []string{"-O2", "-Wall"}},
	{language: LangCPP, compilerBin: "g++", versionArgs: []string{"--version"}, extensions: []string{".cpp", ".cc", ".cxx"}, defaultArgs: []string{"-O2", "-Wall", "-std=c++17"}},
	{language: LangJava, compilerBin: "javac", runtimeBin: "java", versionArgs: []string{"-version"}, extensions: []string{".java"}},
	{language: LangPython, runtimeBin: "python3", versionArgs: []string{"--version"}, extensions: []string{".py"}},
	{language: LangJavaScript, runtimeBin: "node", versionArgs: []string{"--version"}, extensions: []string{".js"}},
	{language: LangGo, compilerBin: "go", versionArgs: []string{"version"}, extensions: []string{".go"}, minGoVersion: "1.21", toolchainFlags: []string{"-trimpath"}},
	{language: LangRust, compilerBin: "rustc", versionArgs: []string{"--version"}, extensions: []string{".rs"}, defaultArgs: []string{"-O"}, toolchainFlags: []string{"--edition=2021"}},
}

// Registry holds every toolchain descriptor this process found on PATH
// at startup.
type Registry struct {
	mu     sync.RWMutex
	byLang map[Language]*Descriptor
	byExt  map[string]*Descriptor
}

// Probe walks probeOrder, recording a descriptor for every toolchain
// found on PATH. Toolchains that are missing are silently skipped: a
// job for a missing language fails at resolve() with
// errtax.UnsupportedLanguage, not at startup.
func Probe(ctx context.Context) *Registry {
	r := &Registry{
		byLang: make(map[Language]*Descriptor),
		byExt:  make(map[string]*Descriptor),
	}

	for _, spec := range probeOrder {
		d := &Descriptor{
			Language:       spec.language,
			Extensions:     spec.extensions,
			DefaultArgs:    spec.defaultArgs,
			MinGoVersion:   spec.minGoVersion,
			ToolchainFlags: spec.toolchainFlags,
		}

		found := false
		if spec.compilerBin != "" {
			if path, err := exec.LookPath(spec.compilerBin); err == nil {
				d.CompilerPath = path
				d.CompilerVersion = versionLine(ctx, path, spec.versionArgs)
				found = true
			}
		}
		if spec.runtimeBin != "" {
			if path, err := exec.LookPath(spec.runtimeBin); err == nil {
				d.RuntimePath = path
				d.RuntimeVersion = versionLine(ctx, path, spec.versionArgs)
				found = true
			}
		}
		if !found {
			continue
		}

		r.byLang[spec.language] = d
		for _, ext := range spec.extensions {
			r.byExt[ext] = d
		}
	}
	return r
}

// versionLine runs bin with args under a short deadline and returns the
// first line of its combined output, trimmed. Toolchains that print
// their version to stderr (javac) or that exit non-zero for --version
// (some rustc builds historically) are still handled: we only care
// about the first line of whatever came out.
func versionLine(ctx context.Context, bin string, args []string) string {
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	cmd := exec.CommandContext(cctx, bin, args...)
	out, _ := cmd.CombinedOutput()

	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

// Resolve returns the descriptor registered for language, if any.
func (r *Registry) Resolve(language Language) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byLang[language]
	return d, ok
}

// ResolveByExtension returns the descriptor registered for a filename
// extension (including the leading dot), if any.
func (r *Registry) ResolveByExtension(ext string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byExt[ext]
	return d, ok
}
