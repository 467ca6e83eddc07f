// README: Terminal demo; generates a plan from flags, then refines it from stdin using in-memory stores.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"voyage/internal/ai"
	"voyage/internal/config"
	"voyage/internal/modules/conversation"
	"voyage/internal/modules/itinerary"
	"voyage/internal/modules/planner"
	"voyage/internal/types"
)

const demoOwner types.ID = "demo"

func main() {
	_ = godotenv.Load()

	var (
		provider  = flag.String("provider", envOr("VOYAGE_AI_PROVIDER", config.ProviderGemini), "completion provider (gemini|openai)")
		from      = flag.String("from", "Paris", "departure city")
		to        = flag.String("to", "Lisbonne", "destination")
		days      = flag.Int("days", 4, "trip length in days")
		start     = flag.String("start", "", "start date (YYYY-MM-DD)")
		budget    = flag.Float64("budget", 1200, "total budget in euros")
		travelers = flag.Int("travelers", 2, "number of travelers")
		interests = flag.String("interests", "", "free-text interests")
		verbose   = flag.Bool("v", false, "debug logging to stderr")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	completer, err := ai.NewCompleter(ctx, config.AIConfig{
		Provider:  strings.ToLower(*provider),
		GeminiKey: os.Getenv("GEMINI_API_KEY"),
		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize completion provider: %v\n", err)
		os.Exit(1)
	}
	if c, ok := completer.(io.Closer); ok {
		defer c.Close()
	}

	startDate, err := itinerary.ParseDate(*start)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	spec := itinerary.TripSpec{
		Departure:   *from,
		Destination: *to,
		Duration:    *days,
		StartDate:   startDate,
		Budget:      *budget,
		Travelers:   *travelers,
		Interests:   *interests,
	}

	svc := planner.NewService(planner.Deps{
		Completer: completer,
		Plans:     itinerary.NewService(itinerary.NewMemoryStore()),
		Log:       conversation.NewMemoryStore(conversation.DefaultLimit),
		Logger:    logger,
	})

	fmt.Printf("Generating %d-day trip %s -> %s with %s...\n\n", spec.Duration, spec.Departure, spec.Destination, completer.Name())
	gen, err := withDeadline(ctx, func(ctx context.Context) (planner.GenerateResult, error) {
		return svc.Generate(ctx, demoOwner, spec)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating plan: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(gen.Reply)
	if gen.Plan == nil {
		return
	}
	plan := gen.Plan

	fmt.Println("\nRefine the plan (empty line or Ctrl-D to quit):")
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() || strings.TrimSpace(in.Text()) == "" {
			return
		}
		res, err := withDeadline(ctx, func(ctx context.Context) (planner.RefineResult, error) {
			return svc.Refine(ctx, demoOwner, plan.ID, in.Text())
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", res.Reply)
		if res.Replaced {
			plan = res.Plan
			fmt.Printf("[plan v%d updated; fields: %s]\n", plan.Version, strings.Join(res.Applied, ", "))
		}
	}
}

func withDeadline[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	return fn(ctx)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
