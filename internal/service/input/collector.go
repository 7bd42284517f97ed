package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/sandwiches/internal/domain/models"
	"github.com/mamadbah2/sandwiches/internal/service/validation"
)

// ErrInputClosed indicates the input stream ended before a valid row was read.
var ErrInputClosed = errors.New("input closed before valid sales data was entered")

// ErrTooManyAttempts indicates the configured attempt cap was reached.
var ErrTooManyAttempts = errors.New("too many invalid attempts")

// maxLineBytes bounds one entry. Longer lines are discarded and rejected.
const maxLineBytes = 4096

type line struct {
	text    string
	tooLong bool
	err     error
}

// Collector prompts the operator until a valid sales row is entered.
//
// Lines are read by a background goroutine, one per request, so Collect can
// return as soon as its context is cancelled even while the read blocks.
type Collector struct {
	reader      *bufio.Reader
	out         io.Writer
	maxAttempts int
	logger      *zap.Logger

	start    sync.Once
	requests chan struct{}
	lines    chan line
	pending  bool
	failed   *line
}

// Option customizes a Collector.
type Option func(*Collector)

// WithMaxAttempts caps the number of prompts. Zero or less means unbounded.
func WithMaxAttempts(n int) Option {
	return func(c *Collector) { c.maxAttempts = n }
}

// WithLogger attaches a logger for rejected input.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCollector builds a Collector reading lines from in and writing prompts to out.
func NewCollector(in io.Reader, out io.Writer, opts ...Option) *Collector {
	c := &Collector{
		reader:   bufio.NewReader(in),
		out:      out,
		logger:   zap.NewNop(),
		requests: make(chan struct{}),
		lines:    make(chan line, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect blocks until a line of six comma-separated integers is entered.
func (c *Collector) Collect(ctx context.Context) (models.Row, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.Row{}, err
		}
		if c.maxAttempts > 0 && attempt > c.maxAttempts {
			return models.Row{}, fmt.Errorf("%w: %d", ErrTooManyAttempts, c.maxAttempts)
		}

		c.printf("Please enter sales data from the last market.\n")
		c.printf("Data should be six numbers, separated by commas.\n")
		c.printf("Example: 10,20,30,40,50,60\n\n")
		c.printf("Enter your data here:\n")

		l, err := c.next(ctx)
		if err != nil {
			return models.Row{}, err
		}
		switch {
		case errors.Is(l.err, io.EOF):
			return models.Row{}, ErrInputClosed
		case l.err != nil:
			return models.Row{}, fmt.Errorf("read sales data: %w", l.err)
		case l.tooLong:
			c.logger.Debug("rejected sales input",
				zap.Int("attempt", attempt),
				zap.String("reason", "line too long"))
			c.printf("Invalid data: input line exceeds %d bytes, please try again.\n\n", maxLineBytes)
			continue
		}

		res := validation.Validate(strings.Split(l.text, ","))
		if res.OK {
			c.printf("Data is valid!\n")
			return res.Row, nil
		}

		c.logger.Debug("rejected sales input",
			zap.Int("attempt", attempt),
			zap.String("reason", string(res.Reason)))
		c.printf("Invalid data: %s, please try again.\n\n", res.Message)
	}
}

// next waits for one input line. A read left outstanding by a cancelled call
// is picked up by the following call instead of issuing a second read.
func (c *Collector) next(ctx context.Context) (line, error) {
	if c.failed != nil {
		return *c.failed, nil
	}
	c.start.Do(func() { go c.readLines() })

	if !c.pending {
		select {
		case c.requests <- struct{}{}:
			c.pending = true
		case <-ctx.Done():
			return line{}, ctx.Err()
		}
	}

	select {
	case l := <-c.lines:
		c.pending = false
		if l.err != nil {
			c.failed = &l
		}
		return l, nil
	case <-ctx.Done():
		return line{}, ctx.Err()
	}
}

func (c *Collector) readLines() {
	for range c.requests {
		l := readLine(c.reader)
		c.lines <- l
		if l.err != nil {
			return
		}
	}
}

// readLine reads up to the next newline. Content beyond maxLineBytes is
// dropped and the line is flagged instead of failing the read.
func readLine(r *bufio.Reader) line {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		frag, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || tooLong) {
				return line{text: string(buf), tooLong: tooLong}
			}
			return line{err: err}
		}
		if !tooLong {
			if len(buf)+len(frag) > maxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if !isPrefix {
			return line{text: string(buf), tooLong: tooLong}
		}
	}
}

func (c *Collector) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
