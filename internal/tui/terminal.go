package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	appErrors "github.com/aaravmahajanofficial/productboard/internal/errors"
	"github.com/aaravmahajanofficial/productboard/internal/models"
	service "github.com/aaravmahajanofficial/productboard/internal/services"
	"github.com/aaravmahajanofficial/productboard/internal/view"
	"github.com/fatih/color"
	"github.com/hellofresh/health-go/v5"
	"github.com/microcosm-cc/bluemonday"
)

const prompt = "productboard> "

// Terminal is the line-oriented front end of a board.
type Terminal struct {
	board  service.BoardService
	health *health.Health
	out    io.Writer
	policy *bluemonday.Policy

	errColor  *color.Color
	okColor   *color.Color
	headColor *color.Color
	dimColor  *color.Color
}

type Option func(*Terminal)

// WithHealth enables the status command.
func WithHealth(h *health.Health) Option {
	return func(t *Terminal) {
		t.health = h
	}
}

func New(board service.BoardService, out io.Writer, opts ...Option) *Terminal {
	t := &Terminal{
		board:     board,
		out:       out,
		policy:    bluemonday.StrictPolicy(),
		errColor:  color.New(color.FgRed, color.Bold),
		okColor:   color.New(color.FgGreen),
		headColor: color.New(color.FgCyan, color.Bold),
		dimColor:  color.New(color.FgHiBlack),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Run reads commands from in until quit, EOF or ctx is done.
func (t *Terminal) Run(ctx context.Context, in io.Reader) error {

	scanner := bufio.NewScanner(in)

	t.Render()
	fmt.Fprint(t.out, prompt)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		quit, err := t.Execute(ctx, scanner.Text())
		if err != nil {
			t.printError(err)
		}
		if quit {
			return nil
		}

		fmt.Fprint(t.out, prompt)
	}

	return scanner.Err()
}

// Execute runs one command line. It reports whether the session should end.
func (t *Terminal) Execute(ctx context.Context, line string) (bool, error) {

	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil

	case "quit", "exit":
		t.okColor.Fprintln(t.out, "Bye.")
		return true, nil

	case "help":
		t.printHelp()

	case "list":
		t.Render()

	case "refresh":
		if _, err := t.board.Refresh(ctx); err != nil {
			t.Render()
			return false, err
		}
		t.Render()

	case "search":
		t.board.SetSearchTerm(arg)
		t.Render()

	case "clear":
		t.board.SetSearchTerm("")
		t.Render()

	case "next":
		t.board.NextPage()
		t.Render()

	case "prev":
		t.board.PreviousPage()
		t.Render()

	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, appErrors.ValidationError("Page must be a number").WithDetail(arg)
		}
		t.board.GoToPage(n)
		t.Render()

	case "set":
		field, value, _ := strings.Cut(arg, " ")
		if err := t.board.SetDraftField(strings.ToLower(field), strings.TrimSpace(value)); err != nil {
			return false, err
		}
		t.renderDraft()

	case "add", "submit":
		product, err := t.board.Submit(ctx)
		if err != nil {
			t.renderDraft()
			return false, err
		}
		t.okColor.Fprintf(t.out, "Saved %s (%s).\n", t.clean(product.Name), product.ID)
		t.Render()

	case "edit":
		if err := t.board.BeginEdit(arg); err != nil {
			return false, err
		}
		t.renderDraft()

	case "cancel":
		t.board.CancelEdit()
		t.renderDraft()

	case "delete":
		if _, err := t.board.Show(arg); err != nil {
			return false, err
		}
		if err := t.board.Remove(ctx, arg); err != nil {
			return false, err
		}
		t.okColor.Fprintf(t.out, "Deleted %s.\n", arg)
		t.Render()

	case "show":
		p, err := t.board.Show(arg)
		if err != nil {
			return false, err
		}
		t.renderProduct(p)

	case "status":
		return false, t.status(ctx)

	default:
		return false, appErrors.ValidationError("Unknown command").WithDetail(cmd)
	}

	return false, nil
}

// Render prints the error banner, the current page and the draft.
func (t *Terminal) Render() {

	state := t.board.State()
	page := state.Page()

	if state.LastError != "" {
		t.errColor.Fprintf(t.out, "! %s\n", state.LastError)
	}

	if state.View.SearchTerm != "" {
		t.dimColor.Fprintf(t.out, "Search: %q\n", state.View.SearchTerm)
	}

	if len(page.Items) == 0 {
		t.dimColor.Fprintln(t.out, "No products to show.")
	} else {
		tw := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tWEIGHT\tPRICE\tCREATED")
		for _, p := range page.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				p.ID, t.clean(p.Name), formatNumber(p.Weight), formatNumber(p.Price), view.FormatCreatedAt(p.CreatedAt))
		}
		if err := tw.Flush(); err != nil {
			slog.Warn("Failed to write product table", slog.String("error", err.Error()))
		}
	}

	fmt.Fprintf(t.out, "Page %d of %d (%d products)\n", page.Page, page.TotalPages, page.TotalItems)

	if d := state.Draft; d != (models.Draft{}) {
		t.renderDraft()
	}
}

func (t *Terminal) renderDraft() {

	state := t.board.State()
	d := state.Draft

	if d.IsEditing() {
		t.headColor.Fprintf(t.out, "Editing %s\n", d.EditingID)
	} else {
		t.headColor.Fprintln(t.out, "New product")
	}

	fields := []struct{ key, label, value string }{
		{models.FieldName, "name", d.Name},
		{models.FieldWeight, "weight", d.Weight},
		{models.FieldPrice, "price", d.Price},
	}
	for _, f := range fields {
		fmt.Fprintf(t.out, "  %-7s %s\n", f.label+":", t.clean(f.value))
		if msg, ok := state.Errors[f.key]; ok {
			t.errColor.Fprintf(t.out, "          %s\n", msg)
		}
	}
}

func (t *Terminal) renderProduct(p models.Product) {
	tw := tabwriter.NewWriter(t.out, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", p.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", t.clean(p.Name))
	fmt.Fprintf(tw, "Weight:\t%s\n", formatNumber(p.Weight))
	fmt.Fprintf(tw, "Price:\t%s\n", formatNumber(p.Price))
	fmt.Fprintf(tw, "Created:\t%s\n", view.FormatCreatedAt(p.CreatedAt))
	_ = tw.Flush()
}

func (t *Terminal) status(ctx context.Context) error {
	if t.health == nil {
		return appErrors.InternalError("Health checks are not configured")
	}

	check := t.health.Measure(ctx)

	c := t.okColor
	if check.Status != health.StatusOK {
		c = t.errColor
	}
	c.Fprintf(t.out, "Status: %s\n", check.Status)

	for name, failure := range check.Failures {
		t.errColor.Fprintf(t.out, "  %s: %s\n", name, failure)
	}

	return nil
}

func (t *Terminal) printError(err error) {

	var draftErr *appErrors.DraftValidationError
	if errors.As(err, &draftErr) {
		t.errColor.Fprintln(t.out, "Fix the highlighted fields and submit again.")
		return
	}

	if appErrors.HasCode(err, appErrors.ErrCodeOperationInFlight) {
		t.errColor.Fprintln(t.out, "That product is still being saved, try again in a moment.")
		return
	}

	t.errColor.Fprintf(t.out, "Error: %s\n", err.Error())
}

func (t *Terminal) printHelp() {
	tw := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	for _, line := range helpLines {
		fmt.Fprintf(tw, "  %s\t%s\n", line[0], line[1])
	}
	_ = tw.Flush()
}

// clean strips markup from server-provided text.
func (t *Terminal) clean(s string) string {
	return html.UnescapeString(t.policy.Sanitize(s))
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var helpLines = [][2]string{
	{"list", "show the current page"},
	{"search <term>", "filter by name"},
	{"clear", "clear the search"},
	{"next | prev", "move between pages"},
	{"page <n>", "jump to a page"},
	{"set <field> <value>", "fill the draft (name, weight, price)"},
	{"add | submit", "save the draft"},
	{"edit <id>", "load a product into the draft"},
	{"cancel", "discard the draft"},
	{"delete <id>", "delete a product"},
	{"show <id>", "show product details"},
	{"refresh", "reload from the server"},
	{"status", "check the products API"},
	{"help", "this text"},
	{"quit", "leave"},
}
