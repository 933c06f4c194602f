package dirwalk_test

import (
	"math/rand"

	"github.com/bsm/dirwalk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Walker", func() {
	var store *countingStore
	var codec *dirwalk.Codec
	var subject *dirwalk.Walker

	BeforeEach(func() {
		codec = seedCodec(dirwalk.Layout{Format: dirwalk.FormatProto})
		store = &countingStore{Store: seedStore(codec, 4, 3)}
		subject = dirwalk.NewWalker(store, codec, &dirwalk.WalkerOptions{
			Rand: rand.New(rand.NewSource(1)),
		})
	})

	It("should walk to the deepest level", func() {
		for i := 0; i < 100; i++ {
			Expect(subject.WalkRandom(0, 4)).To(Equal(3))
		}
		Expect(subject.WalkRandom(2, 3)).To(Equal(3))
	})

	It("should perform one lookup more than steps", func() {
		Expect(subject.WalkRandom(0, 4)).To(Equal(3))
		Expect(store.gets).To(Equal(int64(4)))
	})

	It("should stop at the first miss", func() {
		Expect(subject.WalkRandom(4, 10)).To(Equal(0))
		Expect(store.gets).To(Equal(int64(1)))

		for i := 0; i < 100; i++ {
			Expect(subject.WalkRandom(0, 8)).To(BeNumerically("<=", 3))
		}
	})

	It("should walk empty stores", func() {
		empty := &countingStore{Store: dirwalk.NewMemStore()}
		subject = dirwalk.NewWalker(empty, codec, nil)
		Expect(subject.WalkRandom(0, 4)).To(Equal(0))
		Expect(empty.gets).To(Equal(int64(1)))
	})

	It("should walk paths", func() {
		Expect(subject.Walk(nil)).To(Equal(0))
		Expect(subject.Walk([]int{1, 2})).To(Equal(2))
		Expect(subject.Walk([]int{3, 3, 3})).To(Equal(3))
		Expect(subject.Walk([]int{0, 0, 0, 0})).To(Equal(3))
		Expect(subject.Walk([]int{0, 5, 0})).To(Equal(1))

		_, err := subject.Walk([]int{0, -1})
		Expect(err).To(MatchError(dirwalk.ErrConfig))
	})

	It("should validate ranges", func() {
		for _, r := range [][2]int{{2, 2}, {3, 1}, {-1, 4}} {
			_, err := subject.WalkRandom(r[0], r[1])
			Expect(err).To(MatchError(dirwalk.ErrConfig))
		}
		Expect(store.gets).To(BeZero())
	})

	It("should fail on store errors", func() {
		store.failGet = true
		_, err := subject.WalkRandom(0, 4)
		Expect(err).To(MatchError(errStore))
		Expect(err.Error()).To(Equal("dirwalk: lookup at depth 0: store failure"))
	})

	It("should fail on undecodable values", func() {
		Expect(store.Put(mustKey(1, dirwalk.DirName(dirwalk.DefaultNamePrefix, 0)), []byte{0x20})).To(Succeed())

		n, err := subject.Walk([]int{0, 0, 0})
		Expect(err).To(MatchError(dirwalk.ErrMalformed))
		Expect(n).To(Equal(1))
	})

	It("should bound the name cache", func() {
		Expect(subject.WalkRandom(0, 1<<20)).To(BeNumerically("<=", 3))
		for i := 0; i < 200; i++ {
			_, err := subject.WalkRandom(0, 1<<20)
			Expect(err).NotTo(HaveOccurred())
		}
		Expect(subject.Walk([]int{3, 5000})).To(Equal(1))
		Expect(dirwalk.CachedNames(subject)).To(BeNumerically("<=", dirwalk.MaxCachedNames))
	})

	It("should use the name prefix", func() {
		subject = dirwalk.NewWalker(store, codec, &dirwalk.WalkerOptions{NamePrefix: "/other"})
		Expect(subject.WalkRandom(0, 4)).To(Equal(0))
	})
})
