package massbalance

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Entry is an assembler input. Err is set when the record source already
// rejected the row; such rows are reported without being computed.
type Entry struct {
	Record SampleRecord
	Err    error
}

// Assembler applies compute, classify and recommend to every record.
type Assembler struct {
	classifier    *Classifier
	resolver      *Resolver
	quality       QualityRules
	stressFactors map[string]float64
	failFast      bool
	concurrency   int
	logger        *logrus.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithFailFast makes Assemble return the first row error instead of
// collecting it.
func WithFailFast(failFast bool) Option {
	return func(a *Assembler) { a.failFast = failFast }
}

// WithConcurrency processes rows on up to n goroutines. Output is
// identical to sequential processing.
func WithConcurrency(n int) Option {
	return func(a *Assembler) { a.concurrency = n }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *logrus.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithQualityRules replaces the default data-quality checks.
func WithQualityRules(q QualityRules) Option {
	return func(a *Assembler) { a.quality = q }
}

// WithStressFactors sets per-condition multipliers for the stress severity
// index. Conditions match case-insensitively; unlisted conditions use 1.
func WithStressFactors(factors map[string]float64) Option {
	return func(a *Assembler) {
		a.stressFactors = make(map[string]float64, len(factors))
		for k, v := range factors {
			a.stressFactors[normalizeCondition(k)] = v
		}
	}
}

// NewAssembler creates an assembler around a classifier and resolver.
func NewAssembler(classifier *Classifier, resolver *Resolver, opts ...Option) (*Assembler, error) {
	if classifier == nil {
		return nil, configError("classifier is required")
	}
	if resolver == nil {
		return nil, configError("resolver is required")
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	a := &Assembler{
		classifier:  classifier,
		resolver:    resolver,
		quality:     DefaultQualityRules(),
		concurrency: 1,
		logger:      discard,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Assemble processes records in input order.
func (a *Assembler) Assemble(records []SampleRecord) (*Report, error) {
	entries := make([]Entry, len(records))
	for i, r := range records {
		entries[i] = Entry{Record: r}
	}
	return a.AssembleEntries(entries)
}

// AssembleEntries processes entries in input order. Row failures are
// collected in the report unless fail-fast is set, in which case the
// lowest-index failure is returned.
func (a *Assembler) AssembleEntries(entries []Entry) (*Report, error) {
	start := time.Now()
	rows := make([]AssembledRow, len(entries))
	errs := make([]*RowError, len(entries))

	if a.concurrency <= 1 {
		for i, e := range entries {
			rows[i], errs[i] = a.assembleRow(i, e)
			if errs[i] != nil && a.failFast {
				return nil, errs[i]
			}
		}
	} else {
		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(a.concurrency)
		for i, e := range entries {
			// Rows are scheduled in order, so every unscheduled row has a
			// higher index than any failure that stopped scheduling.
			if ctx.Err() != nil {
				break
			}
			i, e := i, e
			g.Go(func() error {
				rows[i], errs[i] = a.assembleRow(i, e)
				if errs[i] != nil && a.failFast {
					return errs[i]
				}
				return nil
			})
		}
		_ = g.Wait()
		if a.failFast {
			for _, err := range errs {
				if err != nil {
					return nil, err
				}
			}
		}
	}

	report := &Report{Rows: rows}
	counts := make(map[Zone]int)
	for i, err := range errs {
		if err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		counts[rows[i].Zone]++
		if rows[i].Significance == SignificanceWithin {
			report.Within++
		}
	}
	if assessed := len(rows) - len(report.Errors); assessed > 0 {
		report.WithinPct = float64(report.Within) / float64(assessed) * 100
	}
	for _, z := range Zones() {
		report.Summary = append(report.Summary, ZoneCount{Zone: z, Count: counts[z]})
	}

	a.logger.WithFields(logrus.Fields{
		"rows":     len(rows),
		"failed":   len(report.Errors),
		"duration": time.Since(start).String(),
	}).Info("Mass balance report assembled")

	return report, nil
}

func (a *Assembler) assembleRow(i int, e Entry) (AssembledRow, *RowError) {
	row := AssembledRow{
		Index:          i,
		Record:         e.Record,
		StressSeverity: StressSeverity(e.Record, a.stressFactor(e.Record.StressCondition)),
		Warnings:       a.quality.Check(e.Record),
	}

	err := e.Err
	var m MetricSet
	if err == nil {
		m, err = Compute(e.Record)
	}
	if err != nil {
		row.Error = err.Error()
		a.logger.WithFields(logrus.Fields{
			"row":   i,
			"error": err,
		}).Warn("Row rejected")
		return row, &RowError{Index: i, Err: err}
	}

	zone := a.classifier.Classify(m)
	rec := a.resolver.Recommend(zone)
	row.Metrics = &m
	row.Zone = zone
	row.Recommendation = &rec
	row.Significance = a.classifier.Significance(m)

	a.logger.WithFields(logrus.Fields{
		"row":       i,
		"condition": e.Record.StressCondition,
		"amb":       m.AMB,
		"zone":      zone,
	}).Debug("Row classified")

	return row, nil
}

func (a *Assembler) stressFactor(condition string) float64 {
	if f, ok := a.stressFactors[normalizeCondition(condition)]; ok {
		return f
	}
	return 1
}

func normalizeCondition(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
