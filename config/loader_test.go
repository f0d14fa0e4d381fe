package config_test

import (
	"os"
	"path/filepath"

	"github.com/sabouaram/codexec/config"
	"github.com/spf13/pflag"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Load", func() {
	It("falls back to defaults when no flags, file or environment are set", func() {
		fs := pflag.NewFlagSet("codexecd", pflag.ContinueOnError)
		config.BindFlags(fs)
		Expect(fs.Parse(nil)).To(Succeed())

		rt, flags, err := config.Load(fs)
		Expect(err).ToNot(HaveOccurred())
		Expect(rt.QueueMaxSize).To(Equal(config.DefaultQueueMaxSize))
		Expect(flags.ListenAddr).To(Equal(":8080"))
	})

	It("prefers a flag value over the built-in default", func() {
		fs := pflag.NewFlagSet("codexecd", pflag.ContinueOnError)
		config.BindFlags(fs)
		Expect(fs.Parse([]string{"--listen", "127.0.0.1:9999"})).To(Succeed())

		_, flags, err := config.Load(fs)
		Expect(err).ToNot(HaveOccurred())
		Expect(flags.ListenAddr).To(Equal("127.0.0.1:9999"))
	})

	It("reads tunables from a yaml config file", func() {
		dir, err := os.MkdirTemp("", "codexecd-config-")
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(dir) })

		path := filepath.Join(dir, "codexecd.yaml")
		Expect(os.WriteFile(path, []byte("queue_max_size: 500\nmax_upload_bytes: 1048576\n"), 0o644)).To(Succeed())

		fs := pflag.NewFlagSet("codexecd", pflag.ContinueOnError)
		config.BindFlags(fs)
		Expect(fs.Parse([]string{"--config", path})).To(Succeed())

		rt, _, err := config.Load(fs)
		Expect(err).ToNot(HaveOccurred())
		Expect(rt.QueueMaxSize).To(Equal(500))
		Expect(rt.MaxUploadBytes).To(Equal(uint64(1048576)))
	})
})
