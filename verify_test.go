package dirwalk_test

import (
	"math"

	"github.com/bsm/dirwalk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("TreeSize", func() {
	It("should count entries", func() {
		Expect(dirwalk.TreeSize(3, 2)).To(Equal(int64(12)))
		Expect(dirwalk.TreeSize(1, 5)).To(Equal(int64(5)))
		Expect(dirwalk.TreeSize(10, 0)).To(Equal(int64(0)))
		Expect(dirwalk.TreeSize(5, 10)).To(Equal(int64(12207030)))
	})

	It("should saturate on overflow", func() {
		Expect(dirwalk.TreeSize(10, 18)).To(Equal(int64(1111111111111111110)))
		Expect(dirwalk.TreeSize(10, 19)).To(Equal(int64(math.MaxInt64)))
		Expect(dirwalk.TreeSize(10, 20)).To(Equal(int64(math.MaxInt64)))
		Expect(dirwalk.TreeSize(2, 64)).To(Equal(int64(math.MaxInt64)))
	})
})

var _ = Describe("CheckShape", func() {
	It("should accept bounded shapes", func() {
		Expect(dirwalk.CheckShape(5, 10)).To(Succeed())
		Expect(dirwalk.CheckShape(3, 0)).To(Succeed())
		Expect(dirwalk.CheckShape(2, 31)).To(Succeed())
	})

	It("should reject invalid and oversized shapes", func() {
		for _, shape := range [][2]int{{0, 2}, {2, -1}, {2, 32}, {10, 13}, {10, 20}} {
			Expect(dirwalk.CheckShape(shape[0], shape[1])).To(MatchError(dirwalk.ErrConfig), "for %v", shape)
		}
	})
})

var _ = Describe("Verify", func() {
	var codec *dirwalk.Codec
	var store *dirwalk.MemStore

	BeforeEach(func() {
		codec = seedCodec(dirwalk.Layout{Format: dirwalk.FormatCBORLong})
		store = seedStore(codec, 3, 2)
	})

	put := func(id int64, name string) {
		val, err := codec.Encode(id, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Put(mustKey(0, name), val)).To(Succeed())
	}

	It("should accept complete trees", func() {
		Expect(dirwalk.Verify(store, codec, 3, 2)).To(Equal(int64(12)))
	})

	It("should detect missing entries", func() {
		n, err := dirwalk.Verify(store, codec, 3, 3)
		Expect(err).To(MatchError(dirwalk.ErrIncomplete))
		Expect(err.Error()).To(Equal("dirwalk: incomplete tree: found 12 of 39 entries"))
		Expect(n).To(Equal(int64(12)))
	})

	It("should detect extra entries", func() {
		put(13, "extra")
		_, err := dirwalk.Verify(store, codec, 3, 2)
		Expect(err).To(MatchError(dirwalk.ErrIncomplete))
	})

	It("should detect duplicate ids", func() {
		put(1, dirwalk.DirName(dirwalk.DefaultNamePrefix, 1))
		_, err := dirwalk.Verify(store, codec, 3, 2)
		Expect(err).To(MatchError(dirwalk.ErrIncomplete))
		Expect(err.Error()).To(ContainSubstring("duplicate id 1"))
	})

	It("should detect out-of-range ids", func() {
		put(99, dirwalk.DirName(dirwalk.DefaultNamePrefix, 1))
		_, err := dirwalk.Verify(store, codec, 3, 2)
		Expect(err).To(MatchError(dirwalk.ErrIncomplete))
		Expect(err.Error()).To(ContainSubstring("id 99"))
	})

	It("should validate the tree shape", func() {
		_, err := dirwalk.Verify(store, codec, 0, 2)
		Expect(err).To(MatchError(dirwalk.ErrConfig))
	})

	It("should reject oversized shapes before scanning", func() {
		n, err := dirwalk.Verify(dirwalk.NewMemStore(), codec, 10, 20)
		Expect(err).To(MatchError(dirwalk.ErrConfig))
		Expect(n).To(BeZero())

		_, err = dirwalk.Verify(dirwalk.NewMemStore(), codec, 10, 13)
		Expect(err).To(MatchError(dirwalk.ErrConfig))
	})
})
