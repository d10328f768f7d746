// gallery_cli prints the public base gallery in a terminal, page by page.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"base_gallery/internal/client/gallery"
	"base_gallery/internal/domain/models"
	"base_gallery/internal/lib/imageurl"

	list "base_gallery/internal/services/list_service"
	month "base_gallery/internal/services/month_service"

	"github.com/fatih/color"
)

func main() {
	var (
		apiURL  = flag.String("api", os.Getenv("API_URL"), "gallery API base URL, e.g. http://localhost:5000/api/v1")
		pages   = flag.Int("pages", 1, "number of pages to load")
		limit   = flag.Int("limit", list.DefaultPageSize, "bases per page")
		monthF  = flag.String("month", "", "month filter key, empty for all time")
		months  = flag.Bool("months", false, "print month buckets and exit")
		legacy  = flag.Bool("legacy", false, "accept legacy response shapes")
		verbose = flag.Bool("v", false, "log requests to stderr")
	)
	flag.Parse()

	if *apiURL == "" {
		color.Red("api url is required (-api or API_URL)")
		os.Exit(2)
	}

	var out io.Writer = io.Discard
	if *verbose {
		out = os.Stderr
	}
	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := gallery.New(log, *apiURL, gallery.Options{
		Timeout:         15 * time.Second,
		LegacyEnvelopes: *legacy,
		MaxRetries:      2,
	})

	monthService := month.NewMonthService(log, client, time.Minute)

	if *months {
		printMonths(monthService.Refresh(ctx))
		return
	}

	ctl := list.NewListService(log, client, list.Options{
		PageSize:    *limit,
		ImageOrigin: imageurl.Origin(*apiURL),
	})
	defer ctl.Close()

	var err error
	if *monthF != "" {
		monthService.Refresh(ctx)
		color.Cyan("Filter: %s", monthService.Label(*monthF))
		err = ctl.SetFilter(ctx, *monthF)
	} else {
		err = ctl.Load(ctx)
	}

	for i := 1; err == nil && i < *pages; i++ {
		var accepted bool
		accepted, err = ctl.LoadMore(ctx)
		if !accepted {
			break
		}
	}

	printWindow(ctl.Snapshot())

	if err != nil {
		os.Exit(1)
	}
}

func printWindow(w list.Window) {
	if w.State == list.StateError {
		color.Red("%s", w.Error)
		return
	}

	if len(w.Items) == 0 {
		color.Yellow("No bases found")
		return
	}

	title := color.New(color.FgHiWhite, color.Bold)
	dim := color.New(color.FgHiBlack)

	for _, item := range w.Items {
		title.Printf("%s", item.Title)
		dim.Printf("  #%s by %s\n", item.ID, ownerName(item.Owner.Name))

		if item.ImageURL != "" {
			fmt.Printf("  image: %s\n", item.ImageURL)
		} else {
			dim.Println("  image: none")
		}
		color.Blue("  link:  %s", item.ExternalLink)
	}

	summary := fmt.Sprintf("\npage %d of %d, %d bases loaded", w.Page, w.TotalPages, len(w.Items))
	if w.HasMore {
		summary += ", more available"
	}
	color.Green("%s", summary)
}

func printMonths(buckets []models.MonthBucket) {
	if len(buckets) == 0 {
		color.Yellow("No months available")
		return
	}

	color.Cyan("%s", month.AllTimeLabel)
	for _, b := range buckets {
		fmt.Printf("%-10s %-20s %d\n", b.Key, b.Label, b.ItemCount)
	}
}

func ownerName(name string) string {
	if name == "" {
		return "Anonymous"
	}
	return name
}
