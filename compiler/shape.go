package compiler

import (
	"os"
	"strings"
)

// compileCommand returns the argv for the compile phase: bin followed
// by arguments. Returns ok=false for languages with no compile step.
func compileCommand(d *Descriptor, src, exe string, userArgs []string) (bin string, args []string, ok bool) {
	if !d.HasCompileStep() {
		return "", nil, false
	}

	switch d.Language {
	case LangC, LangCPP:
		args = append(args, d.DefaultArgs...)
		args = append(args, userArgs...)
		args = append(args, "-o", exe, src)
		return d.CompilerPath, args, true

	case LangRust:
		args = append(args, d.DefaultArgs...)
		args = append(args, d.ToolchainFlags...)
		args = append(args, userArgs...)
		args = append(args, "-o", exe, src)
		return d.CompilerPath, args, true

	case LangJava:
		args = append(args, d.DefaultArgs...)
		args = append(args, userArgs...)
		args = append(args, src)
		return d.CompilerPath, args, true

	case LangGo:
		args = append(args, "build")
		args = append(args, d.ToolchainFlags...)
		args = append(args, userArgs...)
		args = append(args, "-o", exe, src)
		return d.CompilerPath, args, true

	default:
		return "", nil, false
	}
}

// syntaxCommand returns the argv for ModeSyntaxCheck: the toolchain's
// own syntax-only check, writing no durable artifact. Returns ok=false
// for languages with neither a compiler nor interpreter check flag.
func syntaxCommand(d *Descriptor, src, exe string, userArgs []string) (bin string, args []string, ok bool) {
	switch d.Language {
	case LangC, LangCPP:
		args = append(args, d.DefaultArgs...)
		args = append(args, userArgs...)
		args = append(args, "-fsyntax-only", src)
		return d.CompilerPath, args, true

	case LangRust:
		args = append(args, d.DefaultArgs...)
		args = append(args, userArgs...)
		args = append(args, "--emit=metadata", "-o", exe, src)
		return d.CompilerPath, args, true

	case LangGo:
		args = append(args, "build", "-o", os.DevNull, src)
		return d.CompilerPath, args, true

	case LangJava:
		// javac has no distinct syntax-only flag; full compilation into
		// the sandbox is the closest equivalent.
		args = append(args, d.DefaultArgs...)
		args = append(args, userArgs...)
		args = append(args, src)
		return d.CompilerPath, args, true

	case LangPython:
		args = append(args, "-m", "py_compile", src)
		return d.RuntimePath, args, true

	case LangJavaScript:
		args = append(args, "--check", src)
		return d.RuntimePath, args, true

	default:
		return "", nil, false
	}
}

// runCommand returns the argv for the execute phase, given exe (the
// path a compile step produced, empty for interpreted languages).
func runCommand(d *Descriptor, src, exe string, userArgs []string) (bin string, args []string) {
	switch d.Language {
	case LangC, LangCPP, LangGo, LangRust:
		return exe, userArgs

	case LangJava:
		class := strings.TrimSuffix(src, ".java")
		args = append([]string{class}, userArgs...)
		return d.RuntimePath, args

	case LangPython, LangJavaScript:
		args = append([]string{src}, userArgs...)
		return d.RuntimePath, args

	default:
		return "", nil
	}
}
