package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/wippyai/charm/classfile"
	"github.com/wippyai/charm/classpath"
	"github.com/wippyai/charm/normalize"
)

var (
	version = "dev"
	commit  = "unknown"
)

var red = color.New(color.FgRed).SprintFunc()

func main() {
	if err := newApp(os.Stdout, os.Stderr).root().Execute(); err != nil {
		fatal(err)
	}
}

func fatal(msg any) {
	var s string
	switch msg := msg.(type) {
	case string:
		s = msg
	case error:
		s = msg.Error()
	default:
		s = fmt.Sprintf("%v", msg)
	}
	fmt.Fprintf(os.Stderr, "%s\n", red(s))
	os.Exit(1)
}

// app holds the state shared by every command of one invocation.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer
	log    *zap.Logger
}

func newApp(out, errOut io.Writer) *app {
	return &app{v: viper.New(), out: out, errOut: errOut, log: zap.NewNop()}
}

func (a *app) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charm [class-or-file]...",
		Short: "Decode and print JVM class files",
		Long: `charm decodes JVM class files and prints them as disassembly or as a
declaration skeleton. Arguments ending in .class or naming an existing file
are read directly; anything else is looked up as a class name on the
classpath.`,
		Args:          cobra.ArbitraryArgs,
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			return a.initLogger()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			style, err := a.style()
			if err != nil {
				return err
			}
			return a.render(args, style)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.charm.yaml)")
	flags.StringP("classpath", "c", ".", "class search path of directories and jar files")
	flags.StringP("style", "s", "javap", "output style for the default command (javap, source)")
	flags.Bool("no-color", false, "disable colored output")
	flags.BoolP("verbose", "v", false, "log decode progress to stderr")
	_ = a.v.BindPFlags(flags)

	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	cmd.AddCommand(
		a.javapCmd(),
		a.sourceCmd(),
		a.sexpCmd(),
		a.yamlCmd(),
		a.browseCmd(),
	)
	return cmd
}

// initLogger installs a zap logger in every decoding package.
func (a *app) initLogger() error {
	var cfg zap.Config
	if a.v.GetBool("verbose") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	a.log = l
	classfile.SetLogger(l.Named("classfile"))
	normalize.SetLogger(l.Named("normalize"))
	classpath.SetLogger(l.Named("classpath"))
	return nil
}
