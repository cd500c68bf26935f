package gateway_test

import (
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/smarthome/internal/gateway"
	"procodus.dev/smarthome/internal/store"
)

var _ = Describe("Number", func() {
	Context("with native JSON numbers", func() {
		It("should pass a float64 through", func() {
			n, err := gateway.Number(42.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(42.5))
		})

		It("should accept a json.Number", func() {
			n, err := gateway.Number(json.Number("17.25"))
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(17.25))
		})
	})

	Context("with numeric strings", func() {
		It("should coerce a decimal string", func() {
			n, err := gateway.Number("99.9")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(99.9))
		})

		It("should coerce an integer string", func() {
			n, err := gateway.Number("120")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(120.0))
		})
	})

	Context("with invalid input", func() {
		It("should reject a non-numeric string", func() {
			_, err := gateway.Number("not-a-number")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, store.ErrValidation)).To(BeTrue())
		})

		It("should reject nil", func() {
			_, err := gateway.Number(nil)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, store.ErrValidation)).To(BeTrue())
		})

		It("should reject a boolean", func() {
			_, err := gateway.Number(true)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, store.ErrValidation)).To(BeTrue())
		})
	})
})

var _ = Describe("Instant", func() {
	Context("with string timestamps", func() {
		It("should parse RFC3339", func() {
			t, err := gateway.Instant("2024-06-01T10:30:00Z")
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)))
		})

		It("should parse RFC3339 with a zone offset and normalize to UTC", func() {
			t, err := gateway.Instant("2024-06-01T16:00:00+05:30")
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)))
		})

		It("should parse a zoneless datetime", func() {
			t, err := gateway.Instant("2024-06-01T10:30:00")
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)))
		})

		It("should parse a space-separated datetime", func() {
			t, err := gateway.Instant("2024-06-01 10:30:00")
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)))
		})

		It("should parse a bare date as midnight UTC", func() {
			t, err := gateway.Instant("2024-06-01")
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
		})

		It("should parse an epoch-seconds string", func() {
			t, err := gateway.Instant("1717237800")
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(time.Unix(1717237800, 0).UTC()))
		})
	})

	Context("with numeric timestamps", func() {
		It("should treat small numbers as epoch seconds", func() {
			t, err := gateway.Instant(float64(1717237800))
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(time.Unix(1717237800, 0).UTC()))
		})

		It("should treat large numbers as epoch milliseconds", func() {
			t, err := gateway.Instant(float64(1717237800000))
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(time.UnixMilli(1717237800000).UTC()))
		})
	})

	Context("with invalid input", func() {
		It("should reject an empty string", func() {
			_, err := gateway.Instant("")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, store.ErrValidation)).To(BeTrue())
		})

		It("should reject garbage", func() {
			_, err := gateway.Instant("yesterday-ish")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, store.ErrValidation)).To(BeTrue())
		})

		It("should reject nil", func() {
			_, err := gateway.Instant(nil)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, store.ErrValidation)).To(BeTrue())
		})
	})
})

var _ = Describe("InstantBound", func() {
	It("should treat an empty string as an absent bound", func() {
		bound, err := gateway.InstantBound("")
		Expect(err).NotTo(HaveOccurred())
		Expect(bound).To(BeNil())
	})

	It("should coerce a present bound", func() {
		bound, err := gateway.InstantBound("2024-06-01T00:00:00Z")
		Expect(err).NotTo(HaveOccurred())
		Expect(bound).NotTo(BeNil())
		Expect(*bound).To(Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	})

	It("should surface coercion failures", func() {
		_, err := gateway.InstantBound("garbage")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, store.ErrValidation)).To(BeTrue())
	})
})
