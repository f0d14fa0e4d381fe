package compiler

// Mode is how Execute should treat a job's source. It mirrors
// queue.Mode's values by name rather than by import: queue already
// imports this package to resolve descriptors, so the reverse direction
// would be circular, and keeping the two types distinct (matched only by
// the string values they share) is the same decoupling this tree already
// uses for queue.Recorder/stats.Outcome.
type Mode string

const (
	ModeCompileOnly   Mode = "CompileOnly"
	ModeCompileAndRun Mode = "CompileAndRun"
	ModeInterpretOnly Mode = "InterpretOnly"
	ModeSyntaxCheck   Mode = "SyntaxCheck"
)
