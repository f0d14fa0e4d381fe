package errtax_test

import (
	"errors"

	"github.com/sabouaram/codexec/errtax"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Error", func() {
	It("carries its code and message", func() {
		e := errtax.NotFound.Error()
		Expect(e.GetCode()).To(Equal(errtax.NotFound))
		Expect(e.Error()).To(Equal("not found"))
	})

	It("reports HasCode through a parent chain", func() {
		root := errtax.FileIo.Errorf("open %s: denied", "a.c")
		wrapped := errtax.Internal.Error(root)

		Expect(wrapped.IsCode(errtax.Internal)).To(BeTrue())
		Expect(wrapped.IsCode(errtax.FileIo)).To(BeFalse())
		Expect(wrapped.HasCode(errtax.FileIo)).To(BeTrue())
	})

	It("is compatible with errors.As", func() {
		var target errtax.Error
		err := error(errtax.Timeout.Error())
		Expect(errors.As(err, &target)).To(BeTrue())
		Expect(target.GetCode()).To(Equal(errtax.Timeout))
	})

	It("falls back to the generic message for an unregistered code", func() {
		e := errtax.CodeError(9999).Error()
		Expect(e.Error()).To(Equal("unknown error"))
	})
})
