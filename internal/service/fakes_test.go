package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/genome-variant-explorer/pkg/external"
)

type fakeUCSC struct {
	genomes     []external.UCSCGenome
	chromosomes map[string]int64
	sequence    *external.UCSCSequence
	err         error

	lastSequence struct {
		genome, chrom string
		start, end    int64
	}
}

func (f *fakeUCSC) Genomes(ctx context.Context) ([]external.UCSCGenome, error) {
	return f.genomes, f.err
}

func (f *fakeUCSC) Chromosomes(ctx context.Context, genome string) (map[string]int64, error) {
	return f.chromosomes, f.err
}

func (f *fakeUCSC) Sequence(ctx context.Context, genome, chrom string, start, end int64) (*external.UCSCSequence, error) {
	f.lastSequence.genome, f.lastSequence.chrom = genome, chrom
	f.lastSequence.start, f.lastSequence.end = start, end
	return f.sequence, f.err
}

type fakeGeneIndex struct {
	payload *external.GeneSearchPayload
	err     error
}

func (f *fakeGeneIndex) Search(ctx context.Context, terms string, maxList int) (*external.GeneSearchPayload, error) {
	return f.payload, f.err
}

type fakeNCBI struct {
	gene       *external.GeneSummaryRecord
	geneErr    error
	ids        []string
	searchErr  error
	summary    *external.ClinvarSummaryPayload
	summaryErr error

	lastTerm       string
	summarizeCalls int32
}

func (f *fakeNCBI) GeneSummary(ctx context.Context, geneID string) (*external.GeneSummaryRecord, error) {
	return f.gene, f.geneErr
}

func (f *fakeNCBI) SearchClinvar(ctx context.Context, term string, retmax int) ([]string, error) {
	f.lastTerm = term
	return f.ids, f.searchErr
}

func (f *fakeNCBI) SummarizeClinvar(ctx context.Context, ids []string) (*external.ClinvarSummaryPayload, error) {
	atomic.AddInt32(&f.summarizeCalls, 1)
	return f.summary, f.summaryErr
}

// fakePredictor fails for positions listed in failAt and tracks the peak
// number of concurrent calls.
type fakePredictor struct {
	failAt map[int64]error
	delay  time.Duration

	mu       sync.Mutex
	inFlight int
	peak     int
	calls    int
}

func (f *fakePredictor) Analyze(ctx context.Context, position int64, alternative, genome, chromosome string) (*external.AnalysisReply, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.failAt[position]; ok {
		return nil, err
	}
	return &external.AnalysisReply{
		Position:                 position,
		Reference:                "A",
		Alternative:              alternative,
		DeltaScore:               -0.001,
		Prediction:               "Likely benign",
		ClassificationConfidence: 0.75,
	}, nil
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }
