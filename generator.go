package dirwalk

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultFlushThreshold is the batch size in bytes above which staged
// entries are written to the store.
const DefaultFlushThreshold = 10 << 20

// GeneratorOptions define generator specific options.
type GeneratorOptions struct {
	// DirsPerLevel is the number of children of every directory.
	// Must be at least 1.
	DirsPerLevel int

	// Levels is the depth of the tree below the root.
	// Must not be negative.
	Levels int

	// NamePrefix is the prefix of all directory names.
	// Default: DefaultNamePrefix.
	NamePrefix string

	// FlushThreshold is the batch size in bytes which triggers a write.
	// Default: DefaultFlushThreshold.
	FlushThreshold int

	// Logger receives progress information.
	// Default: no logging.
	Logger *zap.Logger

	// OnFlush, when set, is called after every successful batch write.
	OnFlush func(FlushInfo)
}

func (o *GeneratorOptions) norm() (*GeneratorOptions, error) {
	var oo GeneratorOptions
	if o != nil {
		oo = *o
	}

	if oo.DirsPerLevel < 1 {
		return nil, fmt.Errorf("%w: dirs per level must be at least 1, got %d", ErrConfig, oo.DirsPerLevel)
	}
	if oo.Levels < 0 {
		return nil, fmt.Errorf("%w: levels must not be negative, got %d", ErrConfig, oo.Levels)
	}
	if err := CheckShape(oo.DirsPerLevel, oo.Levels); err != nil {
		return nil, err
	}
	if oo.FlushThreshold < 0 {
		return nil, fmt.Errorf("%w: negative flush threshold %d", ErrConfig, oo.FlushThreshold)
	}

	if oo.NamePrefix == "" {
		oo.NamePrefix = DefaultNamePrefix
	}
	if oo.FlushThreshold == 0 {
		oo.FlushThreshold = DefaultFlushThreshold
	}
	if oo.Logger == nil {
		oo.Logger = zap.NewNop()
	}
	return &oo, nil
}

// FlushInfo describes a single batch write.
type FlushInfo struct {
	Entries  int           // number of entries written
	Bytes    int           // accumulated key and value bytes
	Forced   bool          // true for the final write of a run
	Duration time.Duration // time spent in Store.Write
}

// Generator populates a store with a complete directory tree.
type Generator struct {
	s Store
	c *Codec
	o *GeneratorOptions
}

// NewGenerator validates options and returns a generator. The store is not
// accessed until Generate is called.
func NewGenerator(s Store, c *Codec, o *GeneratorOptions) (*Generator, error) {
	if s == nil || c == nil {
		return nil, fmt.Errorf("%w: generator requires a store and a codec", ErrConfig)
	}

	oo, err := o.norm()
	if err != nil {
		return nil, err
	}
	return &Generator{s: s, c: c, o: oo}, nil
}

// Generate writes the tree depth-first, parents before their children, and
// returns the number of entries written. A failed write aborts the run;
// entries written before the failure remain in the store.
func (g *Generator) Generate() (int64, error) {
	run := &generation{
		Generator: g,
		names:     make([]string, g.o.DirsPerLevel),
	}
	for i := range run.names {
		run.names[i] = DirName(g.o.NamePrefix, i)
	}

	start := time.Now()
	g.o.Logger.Debug("generating tree",
		zap.Stringer("layout", g.c.Layout()),
		zap.Int("dirs_per_level", g.o.DirsPerLevel),
		zap.Int("levels", g.o.Levels),
	)

	if err := run.expand(0, 1); err != nil {
		return run.written, err
	}
	if err := run.flush(true); err != nil {
		return run.written, err
	}

	g.o.Logger.Info("generated tree",
		zap.Stringer("layout", g.c.Layout()),
		zap.Int64("entries", run.written),
		zap.Int("flushes", run.flushes),
		zap.Duration("elapsed", time.Since(start)),
	)
	return run.written, nil
}

// generation is the state of a single Generate call.
type generation struct {
	*Generator

	names   []string
	nextID  int64 // last assigned id
	written int64 // entries durably written
	flushes int

	batch Batch
	key   []byte
}

func (r *generation) expand(parent int64, level int) error {
	if level > r.o.Levels {
		return nil
	}

	for _, name := range r.names {
		r.nextID++
		child := r.nextID

		key, err := AppendKey(r.key[:0], parent, name)
		if err != nil {
			return err
		}
		r.key = key

		val, err := r.c.Encode(child, parent)
		if err != nil {
			return err
		}

		r.batch.Put(key, val)
		if r.batch.Size() > r.o.FlushThreshold {
			if err := r.flush(false); err != nil {
				return err
			}
		}

		if err := r.expand(child, level+1); err != nil {
			return err
		}
	}
	return nil
}

func (r *generation) flush(forced bool) error {
	info := FlushInfo{
		Entries: r.batch.Len(),
		Bytes:   r.batch.Size(),
		Forced:  forced,
	}

	start := time.Now()
	if err := r.s.Write(&r.batch); err != nil {
		return fmt.Errorf("dirwalk: flush %d entries: %w", info.Entries, err)
	}
	info.Duration = time.Since(start)

	r.written += int64(info.Entries)
	r.flushes++
	r.batch.Reset()

	r.o.Logger.Debug("flushed batch",
		zap.Int("entries", info.Entries),
		zap.Int("bytes", info.Bytes),
		zap.Bool("forced", info.Forced),
		zap.Duration("took", info.Duration),
	)
	if r.o.OnFlush != nil {
		r.o.OnFlush(info)
	}
	return nil
}
