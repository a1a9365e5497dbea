package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cpunion/dast-lang/colors"
	"github.com/cpunion/dast-lang/internal/ir"
	"github.com/cpunion/dast-lang/internal/pipeline"
	"github.com/cpunion/dast-lang/internal/value"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dast-ir",
		Short:         "Parse, verify, run and optimize IR v0 programs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("debug", false, "enable debug logging")

	viper.SetEnvPrefix("dast")
	viper.AutomaticEnv()
	if err := viper.BindPFlag("debug", root.PersistentFlags().Lookup("debug")); err != nil {
		// Only possible when the flag above was not registered.
		panic(err)
	}

	root.AddCommand(newPrintCmd(), newCheckCmd(), newRunCmd(), newOptCmd())
	return root
}

func newLogger() *zap.Logger {
	if !viper.GetBool("debug") {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// report renders collected diagnostics and the failing error to stderr.
func report(p *pipeline.Pipeline, err error) error {
	if p != nil && p.Bag().HasErrors() {
		p.Bag().Render(os.Stderr, true)
	} else if err != nil {
		colors.RED.Fprintln(os.Stderr, err.Error())
	}
	return err
}

func newPrintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print <file>",
		Short: "Parse a program and re-emit its canonical text form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return report(nil, err)
			}
			p := pipeline.New(newLogger())
			text, err := p.Print(src)
			if err != nil {
				return report(p, err)
			}
			fmt.Print(text)
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>",
		Short: "Parse and verify a program, reporting diagnostics only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return report(nil, err)
			}
			p := pipeline.New(newLogger())
			if err := p.CheckText(src); err != nil {
				return report(p, err)
			}
			colors.GREEN.Println("ok")
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var fnName string
	cmd := &cobra.Command{
		Use:   "run <file> [arg...]",
		Short: "Parse, verify and execute a program",
		Long: "Parse, verify and execute a program. Arguments are constant " +
			"literals (42, true, \"text\", unit) bound to the entry function's parameters.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return report(nil, err)
			}
			callArgs := make([]value.Value, 0, len(args)-1)
			for _, raw := range args[1:] {
				v, err := ir.ParseConstLiteral(raw)
				if err != nil {
					return report(nil, fmt.Errorf("bad argument %q: %w", raw, err))
				}
				callArgs = append(callArgs, v)
			}
			p := pipeline.New(newLogger())
			result, err := p.Run(src, fnName, callArgs)
			if err != nil {
				return report(p, err)
			}
			fmt.Println(result)
			return nil
		},
	}
	cmd.Flags().StringVar(&fnName, "fn", "", "function to run instead of the entry")
	return cmd
}

func newOptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "opt <file>",
		Short: "Parse, verify, optimize and re-emit a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(args[0])
			if err != nil {
				return report(nil, err)
			}
			p := pipeline.New(newLogger())
			text, err := p.Opt(src)
			if err != nil {
				return report(p, err)
			}
			fmt.Print(text)
			return nil
		},
	}
}
