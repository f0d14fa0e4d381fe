package daemon

import (
	"context"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sabouaram/codexec/admin"
	"github.com/sabouaram/codexec/compiler"
	"github.com/sabouaram/codexec/config"
	"github.com/sabouaram/codexec/fileman"
	"github.com/sabouaram/codexec/queue"
	"github.com/sabouaram/codexec/session"
	"github.com/sabouaram/codexec/stats"
)

// DefaultSweepInterval is how often the file manager's temp-file
// sweeper and the queue's terminal-job GC run, per spec.md §4.F's
// "cleanup_interval (default 1 h)".
const DefaultSweepInterval = time.Hour

// DefaultMaxTempAge is spec.md §4.F's "max_age (default 24 h)" for
// is_temporary file entries.
const DefaultMaxTempAge = 24 * time.Hour

// Daemon owns every long-lived component this service runs: the
// session listener, the admin control plane, the queue supervisor, and
// the periodic GC/sweep maintenance loop.
type Daemon struct {
	Runtime *config.Runtime
	Flags   *config.Flags
	Log     *logrus.Logger

	Files     *fileman.Manager
	Outgoing  *fileman.Manager
	Queue     *queue.Queue
	Stats     *stats.Stats
	Sessions  *session.Manager
	Registry  *compiler.Registry
	Superv    *queue.Supervisor
	SessSrv   *session.Server
	AdminSrv  *admin.Server

	mu       sync.Mutex
	cancel   context.CancelFunc
	exitCode int
}

// New probes the host toolchain, opens the working directories and
// wires every component together, but does not start accepting
// connections: call Run for that.
func New(rt *config.Runtime, flags *config.Flags, log *logrus.Logger) (*Daemon, error) {
	files, err := fileman.NewManager(flags.ProcessingRoot, int64(rt.MaxUploadBytes))
	if err != nil {
		return nil, err
	}
	// outgoing is spec.md §6's {outgoing_root}/: retained result
	// artefacts (a finished job's captured stdout/stderr) live here
	// instead of under the processing-root scratch tree, so they
	// survive independently of sandbox cleanup and the sweeper's
	// temp-file age cutoff.
	outgoing, err := fileman.NewManager(flags.OutgoingRoot, int64(rt.MaxUploadBytes))
	if err != nil {
		return nil, err
	}

	st := stats.New()
	q := queue.New(rt.QueueMaxSize)
	mgr := session.NewManager(q, st)

	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelProbe()
	registry := compiler.Probe(probeCtx)

	superv := queue.NewSupervisor(q, registry, files, outgoing, flags.ProcessingRoot, st,
		rt.CompileTimeout.Time(), rt.ExecTimeout.Time())

	sessLn, err := net.Listen("tcp", flags.ListenAddr)
	if err != nil {
		return nil, err
	}
	sessSrv := &session.Server{
		Listener:    sessLn,
		Manager:     mgr,
		IdleTimeout: rt.ClientIdleTimeout.Time(),
		Log:         log,
		Handler: &session.Handler{
			Manager: mgr, Files: files, Outgoing: outgoing, Queue: q, Stats: st, Registry: registry,
			MaxUpload: rt.MaxUploadBytes,
		},
	}

	adminLn, err := admin.Listen(flags.AdminSocketPath)
	if err != nil {
		return nil, err
	}
	d := &Daemon{
		Runtime: rt, Flags: flags, Log: log,
		Files: files, Outgoing: outgoing, Queue: q, Stats: st, Sessions: mgr,
		Registry: registry, Superv: superv, SessSrv: sessSrv,
	}
	adminSrv := &admin.Server{
		Listener:    adminLn,
		SocketPath:  flags.AdminSocketPath,
		IdleTimeout: admin.DefaultIdleTimeout,
		Log:         log,
		Handler:     &admin.Handler{Sessions: mgr, Queue: q, Stats: st, Config: rt},
		Shutdown:    d.handleAdminShutdown,
	}
	d.AdminSrv = adminSrv

	return d, nil
}

// handleAdminShutdown is wired as admin.Server.Shutdown: a graceful
// request cancels the root context so every worker winds down through
// its normal ctx.Done() path; a forced one exits the process directly,
// matching spec.md §4.A's "on non-graceful, exits immediately after
// ack".
func (d *Daemon) handleAdminShutdown(graceful bool, _ time.Duration) {
	if graceful {
		d.Stop()
		return
	}
	os.Exit(0)
}

// Stop cancels the root context passed to Run, if Run is in flight.
func (d *Daemon) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run starts every worker and blocks until one exits or ctx is done,
// via a golang.org/x/sync/errgroup — the idiomatic equivalent of
// spec.md's "single atomic boolean + condition broadcast" shutdown
// signal: the first worker to return tears down the rest through ctx
// cancellation, and Run returns that worker's error (nil on a clean
// shutdown).
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-sigCh:
			d.Log.Info("shutdown signal received")
			cancel()
			return nil
		case <-gctx.Done():
			return nil
		}
	})

	g.Go(func() error { return d.SessSrv.Serve(gctx) })
	g.Go(func() error { return d.AdminSrv.Serve(gctx) })
	g.Go(func() error { return d.Superv.Run(gctx) })
	g.Go(func() error { d.Files.RunSweeper(gctx, DefaultSweepInterval, DefaultMaxTempAge); return nil })
	g.Go(func() error { d.runGC(gctx); return nil })

	return g.Wait()
}

// runGC periodically asks Queue to drop terminal jobs older than the
// configured retention grace, cleaning up their files through both
// Files (scratch) and Outgoing (retained results).
func (d *Daemon) runGC(ctx context.Context) {
	ticker := time.NewTicker(DefaultSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := d.Queue.GC(d.Runtime.RetentionGrace.Time(), func(jobID uint32) {
				if err := d.cleanupJobFiles(jobID); err != nil {
					d.Log.WithError(err).WithField("job_id", jobID).Warn("gc cleanup failed")
				}
			})
			if n > 0 {
				d.Log.WithField("collected", n).Info("gc pass complete")
			}
		}
	}
}

// cleanupJobFiles removes jobID's tracked files from both the
// processing and outgoing managers, aggregating the two independent
// failure modes (a job's scratch sandbox and its retained result live
// under different roots) into one error rather than only ever
// surfacing whichever happened to run last.
func (d *Daemon) cleanupJobFiles(jobID uint32) error {
	var result *multierror.Error
	if _, err := d.Files.CleanupJob(jobID); err != nil {
		result = multierror.Append(result, err)
	}
	if d.Outgoing != nil {
		if _, err := d.Outgoing.CleanupJob(jobID); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
