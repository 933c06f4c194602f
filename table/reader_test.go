package table_test

import (
	"bytes"
	"fmt"

	"github.com/bsm/dirwalk/table"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/types"
)

var _ = Describe("Reader", func() {
	var subject *table.Reader

	HavePos := func(n int) types.GomegaMatcher {
		return WithTransform(func(x interface{ Pos() int }) int {
			return x.Pos()
		}, Equal(n))
	}

	// The following will seed 100 keys (0, 4, 8, ..., 396) into small
	// blocks of four-entry sections.
	BeforeEach(func() {
		var err error
		subject, err = seedReader(100, &table.WriterOptions{
			BlockSize:            2048,
			BlockRestartInterval: 4,
			Compression:          table.NoCompression,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should init", func() {
		Expect(subject.NumBlocks()).To(BeNumerically(">", 1))

		t10k, err := seedReader(10000, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(t10k.NumBlocks()).To(BeNumerically(">", subject.NumBlocks()))
	})

	It("should reject bad input", func() {
		_, err := table.NewReader(bytes.NewReader([]byte("short")), 5)
		Expect(err).To(MatchError(`table: corrupt data`))

		junk := bytes.Repeat([]byte{1}, 32)
		_, err = table.NewReader(bytes.NewReader(junk), int64(len(junk)))
		Expect(err).To(MatchError(`table: bad magic byte sequence`))
	})

	It("should Get/Append", func() {
		for i := uint64(0); i <= 396; i += 4 {
			sfx := fmt.Sprintf("%04d", i)
			Expect(subject.Get(seedKey(i))).To(HaveSuffix(sfx), "for %d", i)
		}

		_, err := subject.Get(seedKey(1))
		Expect(err).To(MatchError(table.ErrNotFound))
		_, err = subject.Get(seedKey(395))
		Expect(err).To(MatchError(table.ErrNotFound))
		_, err = subject.Get(seedKey(400))
		Expect(err).To(MatchError(table.ErrNotFound))
		_, err = subject.Get([]byte{0})
		Expect(err).To(MatchError(table.ErrNotFound))

		dst := []byte("prefix:")
		dst, err = subject.Append(dst, seedKey(8))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(dst[:7])).To(Equal("prefix:"))
		Expect(dst).To(HaveSuffix("00000008"))
	})

	It("should Get from compressed tables", func() {
		t10k, err := seedReader(10000, nil)
		Expect(err).NotTo(HaveOccurred())

		for _, i := range []uint64{0, 4, 17000, 39996} {
			Expect(t10k.Get(seedKey(i))).To(HaveSuffix(fmt.Sprintf("%08d", i)))
		}
		_, err = t10k.Get(seedKey(40000))
		Expect(err).To(MatchError(table.ErrNotFound))
	})

	It("should retrieve blocks", func() {
		b0, err := subject.GetBlock(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(b0.Pos()).To(Equal(0))

		b1, err := subject.GetBlock(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(b1.Pos()).To(Equal(1))

		b0, err = subject.GetBlock(-1)
		Expect(err).NotTo(HaveOccurred())
		Expect(b0.Pos()).To(Equal(0))

		bx, err := subject.GetBlock(1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(bx.Pos()).To(Equal(subject.NumBlocks()))
	})

	It("should seek blocks", func() {
		n := subject.NumBlocks()
		Expect(subject.SeekBlock(seedKey(0))).To(HavePos(0))
		Expect(subject.SeekBlock(seedKey(396))).To(HavePos(n - 1))
		Expect(subject.SeekBlock(seedKey(397))).To(HavePos(n))
		Expect(subject.SeekBlock(seedKey(1000))).To(HavePos(n))

		prev := 0
		for i := uint64(0); i <= 396; i += 4 {
			b, err := subject.SeekBlock(seedKey(i))
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Pos()).To(BeNumerically(">=", prev))
			prev = b.Pos()
		}
	})

	Describe("BlockReader", func() {
		var block *table.BlockReader

		BeforeEach(func() {
			var err error
			block, err = subject.GetBlock(0)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should have pos", func() {
			Expect(block.Pos()).To(Equal(0))
		})

		It("should have sections", func() {
			n := block.NumSections()
			Expect(n).To(BeNumerically(">", 1))
			Expect(block.GetSection(0).Pos()).To(Equal(0))
			Expect(block.GetSection(1).Pos()).To(Equal(1))
			Expect(block.GetSection(n).Pos()).To(Equal(n))
			Expect(block.GetSection(n + 1).Pos()).To(Equal(n))
			Expect(block.GetSection(-1).Pos()).To(Equal(0))
		})

		It("should seek sections", func() {
			// sections hold four entries each: 0..12, 16..28, ...
			Expect(block.SeekSection(seedKey(0)).Pos()).To(Equal(0))
			Expect(block.SeekSection(seedKey(12)).Pos()).To(Equal(0))
			Expect(block.SeekSection(seedKey(15)).Pos()).To(Equal(0))
			Expect(block.SeekSection(seedKey(16)).Pos()).To(Equal(1))
			Expect(block.SeekSection(seedKey(28)).Pos()).To(Equal(1))
			Expect(block.SeekSection(seedKey(1000)).Pos()).To(Equal(block.NumSections()))
		})
	})

	Describe("SectionReader", func() {
		var section *table.SectionReader

		// S1: 16..28
		BeforeEach(func() {
			block, err := subject.GetBlock(0)
			Expect(err).NotTo(HaveOccurred())

			section = block.GetSection(1)
		})

		It("should have pos", func() {
			Expect(section.Pos()).To(Equal(1))
		})

		It("should seek", func() {
			Expect(section.Seek(seedKey(20))).To(BeTrue())
			Expect(section.Next()).To(BeTrue())
			Expect(section.Key()).To(Equal(seedKey(20)))

			Expect(section.Seek(seedKey(21))).To(BeTrue())
			Expect(section.Next()).To(BeTrue())
			Expect(section.Key()).To(Equal(seedKey(24)))

			Expect(section.Seek(seedKey(29))).To(BeFalse())
		})

		It("should iterate", func() {
			for _, n := range []uint64{16, 20, 24, 28} {
				Expect(section.More()).To(BeTrue())
				Expect(section.Next()).To(BeTrue())
				Expect(section.Key()).To(Equal(seedKey(n)))
				Expect(section.Value()).To(HaveSuffix(fmt.Sprintf("%04d", n)))
			}

			Expect(section.More()).To(BeFalse())
			Expect(section.Next()).To(BeFalse())
			Expect(section.Err()).NotTo(HaveOccurred())
		})
	})

	Describe("Iterator", func() {
		It("should iterate from beginning", func() {
			iter, err := subject.Seek(nil)
			Expect(err).NotTo(HaveOccurred())
			defer iter.Release()

			for i := uint64(0); i <= 396; i += 4 {
				Expect(iter.More()).To(BeTrue())
				Expect(iter.Next()).To(BeTrue())
				Expect(iter.Key()).To(Equal(seedKey(i)))
				Expect(iter.Value()).To(HaveSuffix(fmt.Sprintf("%04d", i)))
			}

			Expect(iter.More()).To(BeFalse())
			Expect(iter.Next()).To(BeFalse())
			Expect(iter.Err()).NotTo(HaveOccurred())
		})

		It("should iterate from middle", func() {
			iter, err := subject.Seek(seedKey(200))
			Expect(err).NotTo(HaveOccurred())
			defer iter.Release()

			Expect(iter.Next()).To(BeTrue())
			Expect(iter.Key()).To(Equal(seedKey(200)))

			iter2, err := subject.Seek(seedKey(201))
			Expect(err).NotTo(HaveOccurred())
			defer iter2.Release()

			Expect(iter2.Next()).To(BeTrue())
			Expect(iter2.Key()).To(Equal(seedKey(204)))
		})

		It("should iterate from last entry", func() {
			iter, err := subject.Seek(seedKey(396))
			Expect(err).NotTo(HaveOccurred())
			defer iter.Release()

			Expect(iter.More()).To(BeTrue())
			Expect(iter.Next()).To(BeTrue())
			Expect(iter.Key()).To(Equal(seedKey(396)))
			Expect(iter.Value()).To(HaveSuffix("0396"))

			Expect(iter.More()).To(BeFalse())
			Expect(iter.Next()).To(BeFalse())
			Expect(iter.Err()).NotTo(HaveOccurred())
		})

		It("should not iterate when past the end", func() {
			iter, err := subject.Seek(seedKey(1000))
			Expect(err).NotTo(HaveOccurred())
			defer iter.Release()

			Expect(iter.More()).To(BeFalse())
			Expect(iter.Next()).To(BeFalse())
			Expect(iter.Err()).NotTo(HaveOccurred())
		})
	})
})
