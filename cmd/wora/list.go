package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/wora/internal/cache"
	"github.com/mmcdole/wora/internal/domain"
	"github.com/mmcdole/wora/internal/tui/styles"
)

// listFlags are shared by the albums and songs commands
type listFlags struct {
	sort  string
	order string
	query string
	pages int
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort by name, artist, year or duration")
	cmd.Flags().StringVar(&f.order, "order", "", "asc or desc (default depends on --sort)")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "search instead of listing")
	cmd.Flags().IntVar(&f.pages, "pages", 1, "pages to load, 0 for all")
}

// project drives a collection the way a scrolling view would and returns
// what it would display
func project[T domain.Record](ctx context.Context, c *cache.Collection[T], f listFlags) ([]T, error) {
	if f.pages < 0 {
		return nil, fmt.Errorf("%w: --pages must not be negative", domain.ErrInvalidInput)
	}
	if err := c.EnsureFresh(ctx); err != nil {
		return nil, err
	}
	for page := 1; f.pages == 0 || page < f.pages; page++ {
		more, err := c.LoadNextPage(ctx)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	if f.sort != "" {
		s, err := domain.ParseSort(f.sort, f.order)
		if err != nil {
			return nil, err
		}
		if err := c.SetSort(ctx, s); err != nil {
			return nil, err
		}
	}
	if f.query != "" {
		c.SearchNow(ctx, f.query)
	}
	return c.Projection(), nil
}

// terminalWidth returns the stdout width, or a default when not a terminal
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 100
	}
	return w
}

func printRecords[T domain.Record](w io.Writer, items []T, hasMore bool) {
	col := max(12, (terminalWidth()-20)/2)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tARTIST\tYEAR\tTIME")
	for _, item := range items {
		year := "--"
		if y := item.GetYear(); y > 0 {
			year = fmt.Sprint(y)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			styles.Truncate(item.GetName(), col),
			styles.Truncate(item.GetArtist(), col),
			year,
			domain.FormatDuration(item.GetDuration()))
	}
	tw.Flush()
	if hasMore {
		fmt.Fprintln(w, "... more available (use --pages 0 for everything)")
	}
}

func printSearchState[T domain.Record](w io.Writer, st cache.Snapshot[T]) {
	if st.Search.Fallback {
		fmt.Fprintln(w, "(search unavailable, showing matches among loaded items)")
	}
}
