// Command summarize sends text from stdin (or -text) to a running
// summarization service and prints the summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/yanqian/seq2seq-summarizer/internal/infra/summaryclient"
)

func main() {
	baseURL := flag.String("url", envOr("SUMMARY_SERVICE_URL", summaryclient.DefaultBaseURL), "summarization service base URL")
	text := flag.String("text", "", "text to summarize; read from stdin when empty")
	health := flag.Bool("health", false, "only check service health")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := summaryclient.NewClient(*baseURL)
	if *health {
		if !client.Healthy(ctx) {
			log.Fatalf("summarization service at %s is not healthy", *baseURL)
		}
		fmt.Println("healthy")
		return
	}

	input := *text
	if input == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("failed to read stdin: %v", err)
		}
		input = string(raw)
	}

	summary, err := client.Summarize(ctx, input)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println(summary)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
