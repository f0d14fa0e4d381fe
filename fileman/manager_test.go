package fileman_test

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sabouaram/codexec/fileman"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Manager", func() {
	var (
		root string
		mgr  *fileman.Manager
	)

	BeforeEach(func() {
		var err error
		root, err = os.MkdirTemp("", "fileman-")
		Expect(err).ToNot(HaveOccurred())
		mgr, err = fileman.NewManager(root, 1024)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(root)
	})

	It("saves an upload and loads it back", func() {
		full, err := mgr.SaveUploaded(1, 7, "main.c", []byte("int main(){}"))
		Expect(err).ToNot(HaveOccurred())
		Expect(filepath.Dir(full)).To(Equal(filepath.Join(root, "job_1")))

		data, err := mgr.Load(full)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("int main(){}"))
	})

	It("refuses a second exclusive-create of the same upload", func() {
		_, err := mgr.SaveUploaded(1, 7, "main.c", []byte("a"))
		Expect(err).ToNot(HaveOccurred())
		_, err = mgr.SaveUploaded(1, 7, "main.c", []byte("b"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects uploads past the max file size", func() {
		_, err := mgr.SaveUploaded(1, 7, "big.c", make([]byte, 2048))
		Expect(err).To(HaveOccurred())
	})

	It("refuses to load a path outside the managed root", func() {
		_, err := mgr.Load(filepath.Join(root, "..", "etc", "passwd"))
		Expect(err).To(HaveOccurred())
	})

	It("mints collision-free temp names", func() {
		a, err := mgr.CreateTemp(2, "out")
		Expect(err).ToNot(HaveOccurred())
		b, err := mgr.CreateTemp(2, "out")
		Expect(err).ToNot(HaveOccurred())
		Expect(a).ToNot(Equal(b))

		entries := mgr.ListJob(2)
		Expect(entries).To(HaveLen(2))
		for _, e := range entries {
			Expect(e.IsTemporary).To(BeTrue())
		}
	})

	It("cleans up every tracked file for a job", func() {
		_, err := mgr.SaveUploaded(3, 7, "a.c", []byte("x"))
		Expect(err).ToNot(HaveOccurred())
		_, err = mgr.CreateTemp(3, "out")
		Expect(err).ToNot(HaveOccurred())

		n, err := mgr.CleanupJob(3)
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(2))
		Expect(mgr.ListJob(3)).To(BeEmpty())
	})

	It("sweeps temporary files older than maxAge", func() {
		stale, err := mgr.CreateTemp(4, "out")
		Expect(err).ToNot(HaveOccurred())

		// Let the entry age past a maxAge shorter than the sweep interval,
		// then let one tick fire.
		time.Sleep(5 * time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go mgr.RunSweeper(ctx, 10*time.Millisecond, time.Millisecond)

		Eventually(func() error {
			_, err := mgr.Info(stale)
			return err
		}, time.Second, 5*time.Millisecond).Should(HaveOccurred())
	})
})
