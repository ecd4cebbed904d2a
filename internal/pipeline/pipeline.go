// Package pipeline turns scanned documents into inventory records.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/partsbin/partsbin/internal/component"
	"github.com/partsbin/partsbin/internal/config"
	"github.com/partsbin/partsbin/internal/fields"
	"github.com/partsbin/partsbin/internal/fs"
	"github.com/partsbin/partsbin/internal/ocr"
	"github.com/partsbin/partsbin/internal/store"
	"github.com/partsbin/partsbin/internal/transform"
)

// Outcome describes what happened to one document.
type Outcome string

const (
	OutcomeAdded         Outcome = "added"
	OutcomeDuplicateFile Outcome = "duplicate_file"
	OutcomeDuplicateHash Outcome = "duplicate_hash"
	OutcomeRejected      Outcome = "rejected"
	OutcomeError         Outcome = "error"
)

// Result counts document outcomes for one run.
type Result struct {
	Found         int
	Added         int
	DuplicateFile int
	DuplicateHash int
	Rejected      int
	Errors        int
}

// Merge adds other's counts to r.
func (r *Result) Merge(other Result) {
	r.Found += other.Found
	r.Added += other.Added
	r.DuplicateFile += other.DuplicateFile
	r.DuplicateHash += other.DuplicateHash
	r.Rejected += other.Rejected
	r.Errors += other.Errors
}

func (r *Result) record(o Outcome) {
	switch o {
	case OutcomeAdded:
		r.Added++
	case OutcomeDuplicateFile:
		r.DuplicateFile++
	case OutcomeDuplicateHash:
		r.DuplicateHash++
	case OutcomeRejected:
		r.Rejected++
	case OutcomeError:
		r.Errors++
	}
}

// Candidate is a record awaiting review, along with the text it came from.
type Candidate struct {
	Document  fs.DocumentInfo
	Text      string
	Component component.Component
}

// Reviewer approves, edits or rejects a candidate before it is stored.
// Edits are made in place on the candidate's Component.
type Reviewer interface {
	Review(ctx context.Context, c *Candidate) (bool, error)
}

// AutoApprove accepts every candidate unchanged.
type AutoApprove struct{}

// Review implements Reviewer.
func (AutoApprove) Review(context.Context, *Candidate) (bool, error) {
	return true, nil
}

// ProgressFunc is called once per document with its outcome.
type ProgressFunc func(doc fs.DocumentInfo, outcome Outcome)

// Pipeline runs discovery, recognition, dedup, parsing and review.
type Pipeline struct {
	store      store.Store
	recognizer ocr.Recognizer
	chain      *transform.Chain
	reviewer   Reviewer
	cfg        config.PipelineConfig
	extSet     map[string]bool

	// OnProgress reports each processed document when set.
	OnProgress ProgressFunc

	now func() time.Time
}

// New creates a Pipeline. A nil reviewer approves everything.
func New(st store.Store, rec ocr.Recognizer, cfg config.PipelineConfig, reviewer Reviewer) (*Pipeline, error) {
	chain, err := transform.NewChain(cfg.Postprocess)
	if err != nil {
		return nil, fmt.Errorf("failed to build postprocess chain: %w", err)
	}
	if reviewer == nil {
		reviewer = AutoApprove{}
	}

	return &Pipeline{
		store:      st,
		recognizer: rec,
		chain:      chain,
		reviewer:   reviewer,
		cfg:        cfg,
		extSet:     fs.NormalizeExtensions(cfg.Extensions),
		now:        time.Now,
	}, nil
}

// Process handles each path, walking directories and processing files
// directly.
func (p *Pipeline) Process(ctx context.Context, paths []string) (Result, error) {
	var total Result
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return total, fmt.Errorf("path does not exist: %w", err)
		}

		var res Result
		if info.IsDir() {
			res, err = p.ProcessDir(ctx, path)
		} else {
			res, err = p.ProcessFile(ctx, path)
		}
		total.Merge(res)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ProcessDir discovers documents under root and processes them in walk order.
func (p *Pipeline) ProcessDir(ctx context.Context, root string) (Result, error) {
	var res Result

	walker, err := fs.NewFileWalker(fs.WalkOptions{
		Root:           root,
		MaxFileSize:    p.cfg.MaxFileSize,
		IgnorePatterns: p.cfg.Ignore,
		UseIgnoreFile:  true,
		Extensions:     p.cfg.Extensions,
	})
	if err != nil {
		return res, fmt.Errorf("failed to create file walker: %w", err)
	}

	// First pass: collect documents
	var docs []fs.DocumentInfo
	err = walker.Walk(func(doc fs.DocumentInfo) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("failed to walk directory: %w", err)
	}

	res.Found = len(docs)
	log.Info("Found documents to process", "count", len(docs), "root", root)

	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		outcome, err := p.processDocument(ctx, doc)
		if err != nil {
			return res, err
		}
		res.record(outcome)
	}

	log.Info("Processing complete", "found", res.Found, "added", res.Added,
		"duplicates", res.DuplicateFile+res.DuplicateHash, "errors", res.Errors)

	return res, nil
}

// ProcessFile processes a single document. Files with an unaccepted
// extension or over the size limit are skipped and not counted as found.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (Result, error) {
	var res Result

	absPath, err := filepath.Abs(path)
	if err != nil {
		return res, fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return res, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return res, fmt.Errorf("path is a directory: %s", absPath)
	}
	if !fs.Accepts(absPath, p.extSet) {
		log.Debug("Skipping unaccepted extension", "path", absPath)
		return res, nil
	}
	if p.cfg.MaxFileSize > 0 && info.Size() > p.cfg.MaxFileSize {
		log.Debug("Skipping large file", "path", absPath, "size", info.Size())
		return res, nil
	}

	doc := fs.DocumentInfo{
		Path:    absPath,
		RelPath: filepath.Base(absPath),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Kind:    fs.DetectKind(absPath),
	}

	res.Found = 1
	outcome, err := p.processDocument(ctx, doc)
	if err != nil {
		return res, err
	}
	res.record(outcome)
	return res, nil
}

// processDocument runs one document through the pipeline. A returned error
// is a store failure and aborts the run; everything else is an outcome.
func (p *Pipeline) processDocument(ctx context.Context, doc fs.DocumentInfo) (Outcome, error) {
	outcome, err := p.evaluate(ctx, doc)
	if err != nil {
		return OutcomeError, err
	}
	if p.OnProgress != nil {
		p.OnProgress(doc, outcome)
	}
	return outcome, nil
}

func (p *Pipeline) evaluate(ctx context.Context, doc fs.DocumentInfo) (Outcome, error) {
	seen, err := p.store.HasFile(doc.Path)
	if err != nil {
		return OutcomeError, err
	}
	if seen {
		log.Debug("File already processed, skipping", "path", doc.RelPath)
		return OutcomeDuplicateFile, nil
	}

	raw, err := p.recognizer.Recognize(ctx, doc.Path)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeError, ctx.Err()
		}
		log.Warn("Failed to recognize document", "path", doc.RelPath, "error", err)
		return OutcomeError, nil
	}

	text := p.chain.Apply(raw)
	if text == "" {
		log.Warn("No text recognized", "path", doc.RelPath)
		return OutcomeError, nil
	}

	hash := fs.HashContent([]byte(text))
	dup, err := p.store.HasHash(hash)
	if err != nil {
		return OutcomeError, err
	}
	if dup {
		log.Debug("Content already stored, skipping", "path", doc.RelPath, "hash", hash)
		return OutcomeDuplicateHash, nil
	}

	cand := &Candidate{
		Document:  doc,
		Text:      text,
		Component: p.buildComponent(text),
	}

	ok, err := p.reviewer.Review(ctx, cand)
	if err != nil {
		return OutcomeError, fmt.Errorf("failed to review %s: %w", doc.RelPath, err)
	}
	if !ok {
		log.Debug("Candidate rejected", "path", doc.RelPath)
		return OutcomeRejected, nil
	}

	added, err := p.store.Add(cand.Component, doc.Path, hash)
	if err != nil {
		return OutcomeError, fmt.Errorf("failed to store component: %w", err)
	}
	if !added {
		// An id set during review can collide with an existing record.
		return OutcomeRejected, nil
	}

	log.Debug("Stored component", "path", doc.RelPath, "id", cand.Component.ID())
	return OutcomeAdded, nil
}

// buildComponent turns parsed fields into a new record.
func (p *Pipeline) buildComponent(text string) component.Component {
	c := component.Component{
		component.FieldType:      component.UnknownType,
		component.FieldSource:    p.recognizer.Service(),
		component.FieldTimestamp: p.now().UTC().Format(time.RFC3339),
	}

	parsed := fields.Parse(text)
	for k, v := range parsed {
		if k == fields.KeyQty {
			if n, err := strconv.Atoi(v); err == nil {
				c[component.FieldQty] = n
			}
			continue
		}
		c[k] = v
	}

	return c
}
