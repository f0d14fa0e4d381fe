package config_test

import (
	"time"

	"github.com/sabouaram/codexec/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Duration", func() {
	It("round-trips through MarshalText/UnmarshalText", func() {
		d := config.Duration(90 * time.Second)
		text, err := d.MarshalText()
		Expect(err).ToNot(HaveOccurred())
		Expect(string(text)).To(Equal("1m30s"))

		var got config.Duration
		Expect(got.UnmarshalText(text)).To(Succeed())
		Expect(got.Time()).To(Equal(90 * time.Second))
	})

	It("rejects malformed duration text", func() {
		var got config.Duration
		Expect(got.UnmarshalText([]byte("not-a-duration"))).To(HaveOccurred())
	})
})

var _ = Describe("Runtime", func() {
	var rt *config.Runtime

	BeforeEach(func() {
		rt = config.NewRuntime()
	})

	It("seeds every admin.ConfigKeys entry with a defined default", func() {
		for _, key := range []string{
			"max_upload_bytes", "compile_timeout_seconds", "exec_timeout_seconds",
			"client_idle_timeout_seconds", "queue_max_size", "retention_grace_seconds",
		} {
			_, ok := rt.Get(key)
			Expect(ok).To(BeTrue(), key)
		}
	})

	It("rejects Get/Set on an unknown key", func() {
		_, ok := rt.Get("bogus")
		Expect(ok).To(BeFalse())
		Expect(rt.Set("bogus", "1")).To(HaveOccurred())
	})

	It("round-trips queue_max_size through Set then Get", func() {
		Expect(rt.Set("queue_max_size", "250")).To(Succeed())
		v, ok := rt.Get("queue_max_size")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("250"))
	})

	It("rejects a non-positive queue_max_size", func() {
		Expect(rt.Set("queue_max_size", "0")).To(HaveOccurred())
		Expect(rt.Set("queue_max_size", "nope")).To(HaveOccurred())
	})

	It("round-trips a timeout given in fractional seconds", func() {
		Expect(rt.Set("exec_timeout_seconds", "2.5")).To(Succeed())
		Expect(rt.ExecTimeout.Time()).To(Equal(2500 * time.Millisecond))
	})

	It("lists every whitelisted key", func() {
		list := rt.List()
		Expect(list).To(HaveKey("max_upload_bytes"))
		Expect(list).To(HaveKey("retention_grace_seconds"))
		Expect(list).To(HaveLen(6))
	})
})
