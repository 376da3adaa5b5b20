package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"finedb/internal/common"
	"finedb/internal/db"
)

func main() {
	engineKind := flag.String("engine", string(db.EngineMemory), "storage engine: memory or badger")
	dir := flag.String("dir", "data", "data directory")
	queueCap := flag.Int("queue", db.DefaultOptions.QueueCapacity, "write queue capacity (0 = unbounded)")
	timeout := flag.Duration("timeout", 0, "enqueue timeout (0 = wait)")
	flag.Parse()

	engine, err := db.Open(
		db.WithEngine(db.EngineKind(*engineKind)),
		db.WithDir(*dir),
		db.WithQueueCapacity(*queueCap),
		db.WithEnqueueTimeout(*timeout),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("finedb - single-writer key-value store")
	fmt.Printf("config: engine=%s dir=%s queue=%d timeout=%s\n", *engineKind, *dir, *queueCap, *timeout)
	fmt.Println("commands: put <key> <value> | get <key> | delete <key> | load <producers> <writes> | stats | dump | inspect <file.log> | history [n] | exit")

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	histPath, err := historyPath()
	if err == nil {
		err = loadHistory(line, histPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history not loaded: %v\n", err)
	}

	ctx := context.Background()

	for {
		select {
		case <-engine.Done():
			line.Close()
			os.Exit(report(engine))
		default:
		}

		input, err := line.Prompt("> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "input error: %v\n", err)
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])

		if cmd == "exit" || cmd == "quit" {
			break
		}

		switch cmd {
		case "put":
			if len(parts) != 3 {
				fmt.Println("usage: put <key> <value>")
				continue
			}
			if err := engine.Put(ctx, []byte(parts[1]), []byte(parts[2])); err != nil {
				fmt.Printf("put error: %v\n", err)
				continue
			}
			fmt.Println("queued")
		case "get":
			if len(parts) != 2 {
				fmt.Println("usage: get <key>")
				continue
			}
			value, err := engine.Get([]byte(parts[1]))
			if err != nil {
				fmt.Printf("get error: %v\n", err)
				continue
			}
			fmt.Printf("%s\n", string(value))
		case "delete":
			if len(parts) != 2 {
				fmt.Println("usage: delete <key>")
				continue
			}
			if err := engine.Delete(ctx, []byte(parts[1])); err != nil {
				fmt.Printf("delete error: %v\n", err)
				continue
			}
			fmt.Println("queued")
		case "load":
			if len(parts) != 3 {
				fmt.Println("usage: load <producers> <writes>")
				continue
			}
			producers, err1 := strconv.Atoi(parts[1])
			writes, err2 := strconv.Atoi(parts[2])
			if err1 != nil || err2 != nil || producers < 1 || writes < 1 {
				fmt.Println("load: producers and writes must be positive integers")
				continue
			}
			start := time.Now()
			printLoadReport(start, runLoad(ctx, engine, producers, writes))
		case "stats":
			printStats(engine.Stats())
		case "dump":
			dumpMemtable(engine)
		case "inspect":
			if len(parts) != 2 {
				fmt.Println("usage: inspect <file.log>")
				continue
			}
			inspectFile(parts[1])
		case "history":
			n := 20
			if len(parts) == 2 {
				if v, err := strconv.Atoi(parts[1]); err == nil {
					n = v
				}
			}
			for i, c := range recentHistory(line, n) {
				fmt.Printf("%4d  %s\n", i+1, c)
			}
		default:
			fmt.Println("unknown command")
		}
	}

	if histPath != "" {
		if err := saveHistory(line, histPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to save history: %v\n", err)
		}
	}
	line.Close()
	os.Exit(report(engine))
}

// report shuts the database down and prints how the writer ended.
func report(engine *db.DB) int {
	result := engine.Shutdown()
	if !result.Clean() {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", result)
		return 1
	}
	if err := engine.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close: %v\n", err)
		return 1
	}
	common.Logf("%s\n", result)
	return 0
}

func printStats(s db.Stats) {
	fmt.Printf("writer:  state=%s applied=%d failed=%d\n", s.Writer.State, s.Writer.Applied, s.Writer.Failed)
	fmt.Printf("queue:   depth=%d/%d max=%d enq=%d deq=%d rejected=%d blocked=%d (%s)\n",
		s.Queue.Depth, s.Queue.Capacity, s.Queue.MaxDepth,
		s.Queue.Enqueued, s.Queue.Dequeued, s.Queue.Rejected,
		s.Queue.Blocked, s.Queue.BlockedTime)
	fmt.Printf("cache:   %d values\n", s.CacheLen)
}
