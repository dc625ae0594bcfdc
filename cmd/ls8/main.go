// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
)

// options are the settings shared by each run of a program.
type options struct {
	verbose bool
	limit   int
}

// loadProgram reads a program file. Files ending in .asm are assembled,
// anything else is read as an .ls8 listing.
func loadProgram(path string, verbose bool) (prog *cpu.Program, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	if filepath.Ext(path) == ".asm" {
		asm := &cpu.Assembler{Verbose: verbose}
		prog, err = asm.Parse(inf)
	} else {
		ld := &cpu.Loader{Verbose: verbose}
		prog, err = ld.Parse(inf)
	}
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}

	return
}

// execute loads and runs a program to completion, printing to out.
// An arithmetic fault is reported as an error. The run stops early once
// ctx is done.
func execute(ctx context.Context, path string, out io.Writer, opt options) (report emulator.Report, err error) {
	prog, err := loadProgram(path, opt.verbose)
	if err != nil {
		return
	}

	emu := emulator.NewEmulator()
	emu.Verbose = opt.verbose
	emu.Limit = opt.limit
	emu.Tape.Output = out

	err = emu.Load(prog)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
		return
	}

	report, err = emu.RunContext(ctx)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
		return
	}

	if report.Reason == emulator.HALT_FAULT {
		err = fmt.Errorf("%v: line %d: %w", path, emu.LineNo(), report.Fault)
		return
	}

	return
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("ls8: ")

	rootCmd := &cobra.Command{
		Use:           "ls8",
		Short:         "LS-8 8-bit computer emulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// run command
	var opt options
	var watch bool

	runCmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run an .ls8 program or .asm source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return watchProgram(cmd.Context(), args[0], cmd.OutOrStdout(), opt)
			}

			report, err := execute(cmd.Context(), args[0], cmd.OutOrStdout(), opt)
			if opt.verbose {
				log.Printf("%v: %v after %d instructions", args[0], report.Reason, report.State.Ticks)
			}
			return err
		},
	}
	runCmd.Flags().BoolVarP(&opt.verbose, "verbose", "v", false, "Trace every instruction")
	runCmd.Flags().IntVar(&opt.limit, "limit", 0, "Maximum instructions to execute (0 = unlimited)")
	runCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-run whenever the file changes")

	// asm command
	var output string
	var asmVerbose bool

	asmCmd := &cobra.Command{
		Use:   "asm FILE",
		Short: "Assemble an .asm source file into an .ls8 listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inf, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer inf.Close()

			asm := &cpu.Assembler{Verbose: asmVerbose}
			prog, err := asm.Parse(inf)
			if err != nil {
				return fmt.Errorf("%v: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if output != "" && output != "-" {
				ouf, err := os.Create(output)
				if err != nil {
					return err
				}
				defer ouf.Close()
				out = ouf
			}

			_, err = prog.WriteTo(out)
			return err
		},
	}
	asmCmd.Flags().StringVarP(&output, "output", "o", "-", "Output .ls8 file")
	asmCmd.Flags().BoolVarP(&asmVerbose, "verbose", "v", false, "Verbose mode")

	// dis command
	disCmd := &cobra.Command{
		Use:   "dis FILE",
		Short: "Disassemble a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0], false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for addr, in := range prog.Instructions() {
				fmt.Fprintf(out, "%02X: %v\n", addr, in)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, asmCmd, disCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}
