// Command snowflake is a thin CLI over the generation API.
//
// Usage:
//
//	snowflake generate [flags]     Generate IDs
//	snowflake parse <id>           Parse and inspect an ID
//	snowflake encode <id> <fmt>    Convert an ID between encodings
//	snowflake validate <id>        Check an ID's structure
//	snowflake bench [flags]        Measure generation throughput
//
// Generator settings for the generate command resolve flag > environment
// (SNOWFLAKE_*) > config file (--config), in viper's usual order.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/alasdairpan/snowflake"
)

const version = "1.0.0"

func main() {
	logger, err := zap.NewDevelopment(zap.WithCaller(false))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch cmd := os.Args[1]; cmd {
	case "generate", "gen", "g":
		cmdGenerate(logger, os.Args[2:])
	case "parse", "p":
		cmdParse(logger, os.Args[2:])
	case "encode", "enc", "e":
		cmdEncode(logger, os.Args[2:])
	case "validate", "val", "v":
		cmdValidate(logger, os.Args[2:])
	case "bench", "b":
		cmdBench(logger, os.Args[2:])
	case "version", "--version":
		fmt.Printf("snowflake CLI version %s (floatsafe=%v)\n", version, snowflake.FloatSafe)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `snowflake - distributed unique ID generator

Usage:
  snowflake <command> [flags]

Commands:
  generate, gen, g   Generate IDs
  parse, p           Parse and inspect an ID
  encode, enc, e     Convert an ID between encodings
  validate, val, v   Check an ID's structure
  bench, b           Measure generation throughput
  version            Show version information
  help               Show this help

Examples:
  snowflake generate --worker 42 --count 10 --format base62
  snowflake parse 1234567890123456789
  snowflake encode 1234567890123456789 base62
`)
}

// newGenerator builds a generator from the merged flag/env/config settings.
func newGenerator(logger *zap.Logger, v *viper.Viper) *snowflake.Generator {
	gen, err := snowflake.NewBuilder().
		WorkerID(v.GetInt64("worker_id")).
		WorkerIDBits(v.GetInt("worker_id_bits")).
		SequenceBits(v.GetInt("sequence_bits")).
		Epoch(v.GetInt64("epoch")).
		Build()
	if err != nil {
		logger.Fatal("creating generator", zap.Error(err))
	}
	return gen
}

// bindGeneratorFlags declares the generator settings on fs and wires them
// into a viper instance together with SNOWFLAKE_* env vars and an optional
// config file.
func bindGeneratorFlags(logger *zap.Logger, fs *pflag.FlagSet) *viper.Viper {
	fs.Int64("worker-id", 0, "worker ID, unique per generator instance")
	fs.Int("worker-id-bits", snowflake.WorkerIDBits, "width of the worker ID field")
	fs.Int("sequence-bits", snowflake.SequenceBits, "width of the sequence field")
	fs.Int64("epoch", snowflake.Epoch, "custom epoch, ms since the Unix epoch")
	fs.String("config", "", "config file with generator settings")

	v := viper.New()
	v.SetEnvPrefix("snowflake")
	v.AutomaticEnv()
	for flagName, key := range map[string]string{
		"worker-id":      "worker_id",
		"worker-id-bits": "worker_id_bits",
		"sequence-bits":  "sequence_bits",
		"epoch":          "epoch",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			logger.Fatal("binding flags", zap.Error(err))
		}
	}
	return v
}

func readConfigFile(logger *zap.Logger, v *viper.Viper, path string) {
	if path == "" {
		return
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		logger.Fatal("reading config file", zap.String("path", path), zap.Error(err))
	}
}

func cmdGenerate(logger *zap.Logger, args []string) {
	fs := pflag.NewFlagSet("generate", pflag.ExitOnError)
	count := fs.Int("count", 1, "number of IDs to generate")
	format := fs.String("format", "decimal", "output format: decimal, base32, base36, base58, base62, hex")
	batch := fs.Bool("batch", false, "generate the whole count under one lock")
	v := bindGeneratorFlags(logger, fs)
	fs.Parse(args)
	readConfigFile(logger, v, mustString(fs, "config"))

	gen := newGenerator(logger, v)

	var ids []snowflake.ID
	var err error
	if *batch {
		ids, err = gen.GenerateBatch(*count)
	} else {
		ids = make([]snowflake.ID, 0, *count)
		for i := 0; i < *count; i++ {
			var id snowflake.ID
			if id, err = gen.GenerateID(); err != nil {
				break
			}
			ids = append(ids, id)
		}
	}
	if err != nil {
		logger.Fatal("generating IDs", zap.Int("generated", len(ids)), zap.Error(err))
	}

	for _, id := range ids {
		out, err := id.Format(*format)
		if err != nil {
			logger.Fatal("formatting ID", zap.String("format", *format), zap.Error(err))
		}
		fmt.Println(out)
	}
}

func cmdParse(logger *zap.Logger, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: snowflake parse <id>")
		os.Exit(1)
	}

	id, err := parseFlexible(args[0])
	if err != nil {
		logger.Fatal("parsing ID", zap.String("input", args[0]), zap.Error(err))
	}

	ts, worker, seq := id.Components()
	fmt.Printf("Snowflake ID: %s\n\n", id)
	fmt.Printf("Components (default layout):\n")
	fmt.Printf("  Timestamp:  %s (%d ms)\n", time.UnixMilli(ts).Format(time.RFC3339), ts)
	fmt.Printf("  Worker ID:  %d\n", worker)
	fmt.Printf("  Sequence:   %d\n", seq)
	fmt.Printf("\nEncodings:\n")
	fmt.Printf("  Decimal:    %s\n", id)
	fmt.Printf("  Base62:     %s\n", id.Base62())
	fmt.Printf("  Base58:     %s\n", id.Base58())
	fmt.Printf("  Base32:     %s\n", id.Base32())
	fmt.Printf("  Hex:        %s\n", id.Hex())
	fmt.Printf("\nAge:          %v\n", id.Age().Round(time.Millisecond))
	fmt.Printf("Valid:        %v\n", id.IsValid())
}

func cmdEncode(logger *zap.Logger, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: snowflake encode <id> <format>")
		os.Exit(1)
	}
	id, err := parseFlexible(args[0])
	if err != nil {
		logger.Fatal("parsing ID", zap.String("input", args[0]), zap.Error(err))
	}
	out, err := id.Format(args[1])
	if err != nil {
		logger.Fatal("formatting ID", zap.String("format", args[1]), zap.Error(err))
	}
	fmt.Println(out)
}

func cmdValidate(logger *zap.Logger, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: snowflake validate <id>")
		os.Exit(1)
	}
	id, err := parseFlexible(args[0])
	if err != nil {
		fmt.Printf("INVALID: unable to parse %q\n", args[0])
		os.Exit(1)
	}
	if !id.IsValid() {
		ts, worker, seq := id.Components()
		fmt.Printf("INVALID: id=%s timestamp=%d worker=%d sequence=%d\n", id, ts, worker, seq)
		os.Exit(1)
	}
	fmt.Printf("VALID: %s\n", id)
}

func cmdBench(logger *zap.Logger, args []string) {
	fs := pflag.NewFlagSet("bench", pflag.ExitOnError)
	duration := fs.Duration("duration", 3*time.Second, "benchmark duration")
	v := bindGeneratorFlags(logger, fs)
	fs.Parse(args)
	readConfigFile(logger, v, mustString(fs, "config"))

	gen := newGenerator(logger, v)

	var count int
	start := time.Now()
	deadline := start.Add(*duration)
	for time.Now().Before(deadline) {
		if _, err := gen.Generate(); err != nil {
			logger.Fatal("generating", zap.Error(err))
		}
		count++
	}
	elapsed := time.Since(start)

	m := gen.Metrics()
	fmt.Printf("Generated %d IDs in %v (%.0f IDs/sec)\n",
		count, elapsed.Round(time.Millisecond), float64(count)/elapsed.Seconds())
	fmt.Printf("Sequence overflows: %d, wait time: %dus\n", m.SequenceOverflow, m.WaitTimeUs)
}

// parseFlexible tries the decimal form first, then the string encodings.
func parseFlexible(s string) (snowflake.ID, error) {
	if id, err := snowflake.ParseString(s); err == nil {
		return id, nil
	}
	if id, err := snowflake.ParseBase62(s); err == nil {
		return id, nil
	}
	if id, err := snowflake.ParseBase58(s); err == nil {
		return id, nil
	}
	if id, err := snowflake.ParseHex(s); err == nil {
		return id, nil
	}
	return snowflake.ParseBase32(s)
}

func mustString(fs *pflag.FlagSet, name string) string {
	s, err := fs.GetString(name)
	if err != nil {
		panic(err)
	}
	return s
}
