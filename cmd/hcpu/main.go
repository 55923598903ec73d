// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"github.com/ezrec/hcpu/cpu"
	"github.com/ezrec/hcpu/emulator"
	"github.com/ezrec/hcpu/io"
)

type options struct {
	compile     string
	output      string
	save        bool
	rom         string
	disassemble bool
	maxTicks    int
	workers     int
	config      string
	dump        string
	verbose     bool
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func splitPath(path string) (io.DirFS, string) {
	return io.DirFS(filepath.Dir(path)), filepath.Base(path)
}

func loadProgram(ctx context.Context, logger *zap.Logger, opt *options) (prog *cpu.Program, err error) {
	switch {
	case len(opt.compile) != 0:
		var inf *os.File
		inf, err = os.Open(opt.compile)
		if err != nil {
			return
		}
		defer inf.Close()

		asm := &cpu.Assembler{
			Verbose: opt.verbose,
			Logger:  logger,
		}
		prog, err = asm.Parse(inf)
		if err != nil {
			err = fmt.Errorf("%v: %w", opt.compile, err)
			return
		}
		logctx.Infof(ctx, "%v: %d statements, %d bytes", opt.compile, len(prog.Statements), len(prog.Image))
	case len(opt.rom) != 0:
		rom := &io.Rom{}
		err = rom.Load(splitPath(opt.rom))
		if err != nil {
			return
		}
		prog = cpu.NewProgram(rom.Data)
	default:
		err = fmt.Errorf("one of -c or -r is required")
		return
	}

	if len(opt.output) != 0 {
		rom := &io.Rom{Data: prog.Binary()}
		dir, name := splitPath(opt.output)
		err = rom.Save(dir, name)
		if err != nil {
			return
		}
		logctx.Infof(ctx, "saved %v", opt.output)
	}

	return
}

func disassemble(prog *cpu.Program) {
	for offset, inst := range prog.Codes() {
		dbg := prog.Debug(offset)
		if dbg.Statement != nil && dbg.Offset == offset {
			fmt.Printf("%08x: %-40v ; %d: %v\n", offset, inst, dbg.LineNo, inst.Describe())
		} else {
			fmt.Printf("%08x: %-40v ; %v\n", offset, inst, inst.Describe())
		}
	}
}

func run(ctx context.Context, logger *zap.Logger, opt *options) (err error) {
	prog, err := loadProgram(ctx, logger, opt)
	if err != nil {
		return
	}

	if opt.disassemble {
		disassemble(prog)
	}

	if opt.save {
		return
	}

	config := emulator.DefaultConfig()
	if len(opt.config) != 0 {
		config, err = emulator.LoadConfig(os.DirFS(filepath.Dir(opt.config)), filepath.Base(opt.config))
		if err != nil {
			return
		}
	}
	if opt.maxTicks != 0 {
		config.MaxTicks = opt.maxTicks
	}
	if opt.workers != 0 {
		config.Workers = opt.workers
	}
	config.Verbose = config.Verbose || opt.verbose

	emu := emulator.NewEmulator(config, logger)
	emu.Program = prog
	emu.Console.Output = os.Stdout

	err = emu.Reset()
	if err != nil {
		return
	}

	ticks, err := emu.Run(ctx, 0)
	logctx.Infof(ctx, "ran for %d ticks, %d actors", ticks, len(emu.Cores()))

	if len(opt.dump) != 0 {
		data, derr := emulator.MarshalSnapshot(emu.Snapshot())
		if derr == nil {
			derr = os.WriteFile(opt.dump, data, 0o644)
		}
		if derr != nil {
			logctx.Error(ctx, "snapshot", zap.Error(derr))
		}
	}

	return
}

func main() {
	var opt options

	flag.StringVar(&opt.compile, "c", "", ".hasm file to assemble")
	flag.StringVar(&opt.output, "o", "", "Image file to write")
	flag.BoolVar(&opt.save, "s", false, "Save image only, do not execute")
	flag.StringVar(&opt.rom, "r", "", "Image file to run")
	flag.BoolVar(&opt.disassemble, "d", false, "Disassemble the image")
	flag.IntVar(&opt.maxTicks, "n", 0, "Maximum ticks to run; 0 is unlimited")
	flag.IntVar(&opt.workers, "j", 0, "Actors stepped in parallel")
	flag.StringVar(&opt.config, "config", "", "TOML configuration file")
	flag.StringVar(&opt.dump, "dump", "", "File to write a CBOR snapshot to after the run")
	flag.BoolVar(&opt.verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%v: Unknown arguments: %v\n", os.Args[0], flag.Args())
		os.Exit(2)
	}

	logger, err := newLogger(opt.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v: %v\n", os.Args[0], err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = logctx.NewContext(ctx, logger)

	err = run(ctx, logger, &opt)
	if err != nil {
		logctx.Error(ctx, "hcpu", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}
