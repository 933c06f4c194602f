package table_test

import (
	"bytes"
	"math/rand"

	"github.com/bsm/dirwalk/table"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Writer", func() {
	var buf *bytes.Buffer
	var subject *table.Writer
	var testdata = []byte("testdata")

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		subject = table.NewWriter(buf, nil)
	})

	AfterEach(func() {
		_ = subject.Close()
	})

	It("should write empty", func() {
		Expect(subject.Close()).To(Succeed())
		Expect(buf.Len()).To(Equal(16))
	})

	It("should reject writes once closed", func() {
		Expect(subject.Close()).To(Succeed())
		Expect(subject.Append([]byte("a"), testdata)).To(MatchError(`table: is closed`))
		Expect(subject.Close()).To(MatchError(`table: is closed`))
	})

	It("should prevent out-of-order appends", func() {
		Expect(subject.Append([]byte("b"), testdata)).To(Succeed())
		Expect(subject.Append([]byte("a"), testdata)).To(MatchError(`table: attempted an out-of-order append, 61 must be > 62`))
		Expect(subject.Append([]byte("ba"), testdata)).To(Succeed())
		Expect(subject.Append([]byte("b"), testdata)).To(MatchError(`table: attempted an out-of-order append, 62 must be > 6261`))
		Expect(subject.Append([]byte("c"), testdata)).To(Succeed())
		Expect(subject.Append([]byte("c"), testdata)).To(MatchError(`table: attempted an out-of-order append, 63 must be > 63`))
		Expect(subject.Append([]byte("d"), testdata)).To(Succeed())
	})

	It("should write (non-compressable)", func() {
		rnd := rand.New(rand.NewSource(1))
		val := make([]byte, 128)

		for key := uint64(0); key < 100000; key += 2 {
			_, err := rnd.Read(val)
			Expect(err).NotTo(HaveOccurred())
			Expect(subject.Append(seedKey(key), val)).To(Succeed())
		}
		Expect(subject.Close()).To(Succeed())
		Expect(buf.Len()).To(BeNumerically(">", 50000*128))
		Expect(buf.String()[buf.Len()-8:]).To(Equal("\x71\x05\xC9\x26\xA4\x5A\x11\xE8"))
	})

	It("should write (well-compressable)", func() {
		val := bytes.Repeat(testdata, 16)
		for key := uint64(0); key < 100000; key += 2 {
			Expect(subject.Append(seedKey(key), val)).To(Succeed())
		}
		Expect(subject.Close()).To(Succeed())
		Expect(buf.Len()).To(BeNumerically("<", 50000*128/4))
		Expect(buf.String()[buf.Len()-8:]).To(Equal("\x71\x05\xC9\x26\xA4\x5A\x11\xE8"))
	})

	It("should prefix-compress keys", func() {
		plain := new(bytes.Buffer)
		w := table.NewWriter(plain, &table.WriterOptions{Compression: table.NoCompression, BlockRestartInterval: 1})
		for key := uint64(0); key < 1000; key++ {
			Expect(w.Append(seedKey(key), testdata)).To(Succeed())
		}
		Expect(w.Close()).To(Succeed())

		packed := new(bytes.Buffer)
		w = table.NewWriter(packed, &table.WriterOptions{Compression: table.NoCompression})
		for key := uint64(0); key < 1000; key++ {
			Expect(w.Append(seedKey(key), testdata)).To(Succeed())
		}
		Expect(w.Close()).To(Succeed())

		Expect(packed.Len()).To(BeNumerically("<", plain.Len()))
	})
})
