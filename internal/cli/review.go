package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/partsbin/partsbin/internal/component"
	"github.com/partsbin/partsbin/internal/pipeline"
	"github.com/partsbin/partsbin/internal/ui"
)

// errReviewQuit stops a run from the review prompt.
var errReviewQuit = errors.New("review stopped")

// reviewExcerptLen caps the recognized text shown per candidate.
const reviewExcerptLen = 400

// editableFields are offered, in order, when a candidate is edited.
var editableFields = []string{
	component.FieldType,
	component.FieldValue,
	component.FieldQty,
	component.FieldDescription,
	component.FieldPartNumber,
	component.FieldPackage,
}

// promptReviewer asks on the terminal whether to keep each candidate.
type promptReviewer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ pipeline.Reviewer = (*promptReviewer)(nil)

func newPromptReviewer(in io.Reader, out io.Writer) *promptReviewer {
	return &promptReviewer{in: bufio.NewReader(in), out: out}
}

// Review implements pipeline.Reviewer.
func (r *promptReviewer) Review(ctx context.Context, c *pipeline.Candidate) (bool, error) {
	r.show(c)

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		answer, err := r.ask("[a]ccept, [e]dit, [s]kip, [q]uit? ")
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case "", "a", "accept", "y", "yes":
			return true, nil
		case "s", "skip", "n", "no":
			return false, nil
		case "q", "quit":
			return false, errReviewQuit
		case "e", "edit":
			if err := r.edit(c.Component); err != nil {
				return false, err
			}
			r.showFields(c.Component)
		default:
			fmt.Fprintln(r.out, ui.Warning.Render("Please answer a, e, s or q."))
		}
	}
}

func (r *promptReviewer) show(c *pipeline.Candidate) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, ui.Header.Render(c.Document.RelPath))

	text := c.Text
	if len(text) > reviewExcerptLen {
		text = text[:reviewExcerptLen] + "..."
	}
	fmt.Fprintln(r.out, ui.Dim.Render(text))
	fmt.Fprintln(r.out)
	r.showFields(c.Component)
}

func (r *promptReviewer) showFields(c component.Component) {
	for _, k := range editableFields {
		if v := c.String(k); v != "" {
			fmt.Fprintln(r.out, ui.KeyValue(k, v))
		}
	}
	if p := c.String(component.FieldPrice); p != "" {
		fmt.Fprintln(r.out, ui.KeyValue(component.FieldPrice, p))
	}
}

// edit prompts for each editable field. An empty answer keeps the
// current value and "-" clears it.
func (r *promptReviewer) edit(c component.Component) error {
	for _, k := range editableFields {
		answer, err := r.ask(fmt.Sprintf("%s [%s]: ", k, c.String(k)))
		if err != nil {
			return err
		}
		switch answer {
		case "":
			continue
		case "-":
			delete(c, k)
		default:
			c[k] = coerceField(k, answer)
		}
	}
	return nil
}

func (r *promptReviewer) ask(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	line, err := r.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line == "" {
			return "", errReviewQuit
		}
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("failed to read answer: %w", err)
		}
	}
	return strings.TrimSpace(line), nil
}

// coerceField stores quantities as integers when they parse.
func coerceField(key, value string) any {
	if key == component.FieldQty || key == component.FieldQuantity {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return value
}
