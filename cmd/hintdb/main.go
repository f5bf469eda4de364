package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/RichardKnop/hintdb"
)

const (
	defaultDBFileName = "hints.db"
	pageSize          = 100
)

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: hintdb [-db path] <command> [args]

commands:
  create              create the hints table and indexes
  insert              read "item_id_hex hint_hex" pairs from stdin
  lookup <hint_hex>   print item ids stored for a hint
  page <hint_hex>...  page through item ids for a set of hints
  count               print the total number of stored records
`)
	os.Exit(2)
}

func main() {
	_ = godotenv.Load()

	var (
		dbPath   = flag.String("db", envOrDefault("HINTDB_PATH", defaultDBFileName), "database file path")
		logLevel = flag.String("log-level", envOrDefault("LOG_LEVEL", "warn"), "log level: debug, info, warn, error")
	)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := hintdb.Open(ctx, *dbPath+"?log_level="+*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hintdb:", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := run(ctx, store, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "hintdb:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, store *hintdb.HintStore, command string, args []string) error {
	switch command {
	case "create":
		// Open already created the schema; nothing left to do.
		return nil
	case "insert":
		return runInsert(ctx, store)
	case "lookup":
		if len(args) != 1 {
			usage()
		}
		return runLookup(ctx, store, args[0])
	case "page":
		if len(args) == 0 {
			usage()
		}
		return runPage(ctx, store, args)
	case "count":
		count, err := store.Count(ctx)
		if err != nil {
			return err
		}
		fmt.Println(count)
		return nil
	default:
		usage()
		return nil
	}
}

func runInsert(ctx context.Context, store *hintdb.HintStore) error {
	var records []hintdb.HintRecord

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("expected \"item_id_hex hint_hex\", got %q", line)
		}
		id, err := hintdb.ItemIDFromHex(fields[0])
		if err != nil {
			return err
		}
		hint, err := hex.DecodeString(fields[1])
		if err != nil {
			return fmt.Errorf("invalid hint hex %q: %w", fields[1], err)
		}
		records = append(records, hintdb.HintRecord{ItemID: id, Hint: hint})
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if err := store.Insert(ctx, records); err != nil {
		return err
	}
	fmt.Printf("inserted %d records\n", len(records))
	return nil
}

func runLookup(ctx context.Context, store *hintdb.HintStore, hintHex string) error {
	hint, err := hex.DecodeString(hintHex)
	if err != nil {
		return fmt.Errorf("invalid hint hex %q: %w", hintHex, err)
	}

	ids, err := store.Lookup(ctx, hint, hintdb.DefaultMaxItems)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func runPage(ctx context.Context, store *hintdb.HintStore, hintHexes []string) error {
	hints := make([][]byte, 0, len(hintHexes))
	for _, h := range hintHexes {
		hint, err := hex.DecodeString(h)
		if err != nil {
			return fmt.Errorf("invalid hint hex %q: %w", h, err)
		}
		hints = append(hints, hint)
	}

	var cursor *hintdb.ItemID
	for {
		page, err := store.Page(ctx, hints, pageSize, cursor)
		if err != nil {
			return err
		}
		if page.TotalCount != nil {
			fmt.Printf("total: %d\n", *page.TotalCount)
		}
		for _, id := range page.ItemIDs {
			fmt.Println(id)
		}
		if len(page.ItemIDs) < pageSize {
			return nil
		}
		cursor = page.NextCursor
	}
}
