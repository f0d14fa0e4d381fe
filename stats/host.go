package stats

import (
	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/mem"
)

// SnapshotDetailed is Snapshot plus host load/memory figures, for the
// admin control plane's `ServerStats detailed` command (spec.md §4.A).
// Host sampling can block briefly on /proc reads, so it is only ever
// done on explicit request, never folded into the plain Snapshot path
// that other components poll routinely.
func (s *Stats) SnapshotDetailed() Snapshot {
	snap := s.Snapshot()
	snap.HostLoad1, snap.HostMemUsedP = sampleHost()
	return snap
}

// sampleHost best-efforts a one-minute load average and used-memory
// percentage. Either figure is left at zero if gopsutil cannot read
// the host (e.g. a container without /proc/loadavg), matching the
// zero-when-not-requested contract AdminStatsPayload already documents
// for these two fields.
func sampleHost() (load1, memUsedPct float64) {
	if avg, err := load.Avg(); err == nil {
		load1 = avg.Load1
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		memUsedPct = vm.UsedPercent
	}
	return load1, memUsedPct
}
