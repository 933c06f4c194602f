package dirwalk_test

import (
	"github.com/bsm/dirwalk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Generator", func() {
	var store *countingStore
	var codec *dirwalk.Codec

	BeforeEach(func() {
		store = &countingStore{Store: dirwalk.NewMemStore()}
		codec = seedCodec(dirwalk.Layout{Format: dirwalk.FormatLong})
	})

	generate := func(o *dirwalk.GeneratorOptions) (int64, error) {
		g, err := dirwalk.NewGenerator(store, codec, o)
		if err != nil {
			return 0, err
		}
		return g.Generate()
	}

	lookup := func(path ...int) int64 {
		var id int64
		for _, i := range path {
			val, err := store.Get(mustKey(id, dirwalk.DirName(dirwalk.DefaultNamePrefix, i)))
			Expect(err).NotTo(HaveOccurred())
			id, err = codec.DecodeNextID(val)
			Expect(err).NotTo(HaveOccurred())
		}
		return id
	}

	It("should validate options", func() {
		for _, o := range []*dirwalk.GeneratorOptions{
			nil,
			{DirsPerLevel: 0, Levels: 2},
			{DirsPerLevel: 2, Levels: -1},
			{DirsPerLevel: 2, Levels: 2, FlushThreshold: -1},
			{DirsPerLevel: 10, Levels: 20},
		} {
			_, err := dirwalk.NewGenerator(store, codec, o)
			Expect(err).To(MatchError(dirwalk.ErrConfig))
		}
		Expect(store.writes).To(BeZero())

		_, err := dirwalk.NewGenerator(nil, codec, &dirwalk.GeneratorOptions{DirsPerLevel: 1})
		Expect(err).To(MatchError(dirwalk.ErrConfig))
	})

	It("should generate complete trees", func() {
		Expect(generate(&dirwalk.GeneratorOptions{DirsPerLevel: 3, Levels: 2})).To(Equal(int64(12)))
		Expect(store.Store.(*dirwalk.MemStore).Len()).To(Equal(12))
		Expect(store.writes).To(Equal(int64(1)))
	})

	It("should assign ids depth-first", func() {
		Expect(generate(&dirwalk.GeneratorOptions{DirsPerLevel: 3, Levels: 2})).To(Equal(int64(12)))
		Expect(lookup(0)).To(Equal(int64(1)))
		Expect(lookup(0, 0)).To(Equal(int64(2)))
		Expect(lookup(0, 2)).To(Equal(int64(4)))
		Expect(lookup(1)).To(Equal(int64(5)))
		Expect(lookup(1, 0)).To(Equal(int64(6)))
		Expect(lookup(2)).To(Equal(int64(9)))
		Expect(lookup(2, 2)).To(Equal(int64(12)))
	})

	It("should flush when the threshold is exceeded", func() {
		var flushes []dirwalk.FlushInfo
		Expect(generate(&dirwalk.GeneratorOptions{
			DirsPerLevel:   3,
			Levels:         2,
			NamePrefix:     "/d",
			FlushThreshold: 50, // each entry is 14+8 bytes
			OnFlush:        func(fi dirwalk.FlushInfo) { flushes = append(flushes, fi) },
		})).To(Equal(int64(12)))

		Expect(flushes).To(HaveLen(5))
		for _, fi := range flushes[:4] {
			Expect(fi.Entries).To(Equal(3))
			Expect(fi.Bytes).To(Equal(66))
			Expect(fi.Forced).To(BeFalse())
		}
		Expect(flushes[4].Entries).To(Equal(0))
		Expect(flushes[4].Forced).To(BeTrue())
		Expect(store.writes).To(Equal(int64(5)))
	})

	It("should always force a final flush", func() {
		var flushes []dirwalk.FlushInfo
		Expect(generate(&dirwalk.GeneratorOptions{
			DirsPerLevel: 2,
			Levels:       0,
			OnFlush:      func(fi dirwalk.FlushInfo) { flushes = append(flushes, fi) },
		})).To(Equal(int64(0)))

		Expect(flushes).To(HaveLen(1))
		Expect(flushes[0].Forced).To(BeTrue())
		Expect(store.writes).To(Equal(int64(1)))
	})

	It("should abort on flush failures", func() {
		store.failWriteAt = 2
		n, err := generate(&dirwalk.GeneratorOptions{
			DirsPerLevel:   3,
			Levels:         2,
			NamePrefix:     "/d",
			FlushThreshold: 50,
		})
		Expect(err).To(MatchError(errStore))
		Expect(err.Error()).To(Equal("dirwalk: flush 3 entries: store failure"))
		Expect(n).To(Equal(int64(3)))
		Expect(store.writes).To(Equal(int64(2)))
		Expect(store.Store.(*dirwalk.MemStore).Len()).To(Equal(3))
	})

	It("should generate with all layouts", func() {
		for _, l := range dirwalk.Layouts {
			s := seedStore(seedCodec(l), 4, 3)
			Expect(dirwalk.Verify(s, seedCodec(l), 4, 3)).To(Equal(int64(84)), "for %s", l)
		}
	})
})
