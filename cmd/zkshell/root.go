package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dhamidi/zkshell"
	"github.com/dhamidi/zkshell/config"
	"github.com/dhamidi/zkshell/store"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

// errReported marks failures the shell has already shown to the user.
var errReported = errors.New("command failed")

type rootOptions struct {
	cfgFile        string
	defaultPath    string
	editor         string
	logLevel       string
	sessionTimeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "zkshell <hosts> [command [args...]]",
		Short: "Browse and edit a ZooKeeper tree like a filesystem",
		Long: `zkshell connects to a coordination store and offers filesystem-like
commands: ls, cd, pwd, mkdir, rm, cat, edit, editor, set_editor, exit.

<hosts> is a ZooKeeper connection string (host:2181,host2:2181[/chroot]),
sqlite:///path/to/file.db for a local tree, or mem:// for a throwaway one.

With a command after <hosts>, that single command runs and zkshell exits.
Arguments after the command are passed to it untouched:

  zkshell localhost:2181 rm -r /app`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.defaultPath, "default_path", "/", "path to start in")
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default: $ZKSHELL_CONFIG or ~/.config/zkshell/config.toml)")
	flags.StringVar(&opts.editor, "editor", "", "editor used by edit (default: $EDITOR)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.DurationVar(&opts.sessionTimeout, "session-timeout", 0, "ZooKeeper session timeout")
	return cmd
}

// execute runs the root command. Everything from the one-shot command
// word onwards belongs to that command, so it is moved behind "--" before
// cobra sees it. Long forms of our own flags are still accepted there.
func execute(args []string) error {
	cmd := newRootCmd()
	cmd.SetArgs(oneShotArgs(cmd.Flags(), args))
	return cmd.Execute()
}

func oneShotArgs(flags *pflag.FlagSet, args []string) []string {
	var (
		head        []string
		tail        []string
		positionals int
	)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			if positionals > 1 {
				tail = append(tail, arg)
				continue
			}
			return append(append(head, args[i:]...), tail...)
		}
		if consumed := ownFlag(flags, arg, positionals > 1); consumed > 0 {
			end := min(i+consumed, len(args))
			head = append(head, args[i:end]...)
			i = end - 1
			continue
		}
		if positionals > 1 {
			tail = append(tail, arg)
			continue
		}
		if positionals == 1 {
			positionals++
			tail = append(tail, arg)
			continue
		}
		if !strings.HasPrefix(arg, "-") {
			positionals++
		}
		head = append(head, arg)
	}
	if len(tail) == 0 {
		return head
	}
	return append(append(head, "--"), tail...)
}

// ownFlag reports how many arguments a flag of ours starting at arg takes
// up, or 0 when arg is not one. Once the command word has been seen only
// long flags are recognised, so "-r" and friends reach the command.
func ownFlag(flags *pflag.FlagSet, arg string, longOnly bool) int {
	if !strings.HasPrefix(arg, "-") || arg == "-" {
		return 0
	}
	var flag *pflag.Flag
	name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
	if name == "" {
		return 0
	}
	switch {
	case strings.HasPrefix(arg, "--"):
		flag = flags.Lookup(name)
	case !longOnly:
		// Unknown short flags before the command word stay with cobra,
		// which reports them.
		if flag = flags.ShorthandLookup(name[:1]); flag == nil {
			return 1
		}
		hasValue = hasValue || len(name) > 1
	}
	if flag == nil {
		if longOnly {
			return 0
		}
		return 1
	}
	if hasValue || flag.NoOptDefVal != "" {
		return 1
	}
	return 2
}

// loadConfig layers command line flags over the config file.
func loadConfig(cmd *cobra.Command, opts *rootOptions, args []string) (*config.Config, []string, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("default_path") {
		cfg.DefaultPath = opts.defaultPath
	}
	if flags.Changed("editor") {
		cfg.Editor = opts.editor
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("session-timeout") {
		cfg.SessionTimeout = config.Duration{Duration: opts.sessionTimeout}
	}
	if len(args) > 0 {
		cfg.Hosts = args[0]
		args = args[1:]
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrNoHosts) {
			return nil, nil, fmt.Errorf("%w (pass <hosts> or set hosts in the config file)", err)
		}
		return nil, nil, err
	}
	return cfg, args, nil
}

func run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, oneShot, err := loadConfig(cmd, opts, args)
	if err != nil {
		return err
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, level)

	st, err := store.Open(cfg.Hosts, store.Options{
		SessionTimeout: cfg.SessionTimeout.Duration,
		Logf:           storeLogf(logger),
	})
	if err != nil {
		return err
	}
	logger.Info("connected", "hosts", cfg.Hosts, "path", cfg.DefaultPath)

	sh := zkshell.New(st, cfg.DefaultPath).
		WithEditor(cfg.Editor).
		WithScratch(afero.NewOsFs(), cfg.ScratchDir).
		WithLogger(logger)
	defer sh.Close()

	if len(oneShot) > 0 {
		if err := sh.Execute(strings.Join(oneShot, " ")); err != nil {
			return errReported
		}
		return nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return sh.Run(zkshell.NewScannerReader(os.Stdin, nil))
	}
	reader, err := zkshell.NewTerminalReader(sh)
	if err != nil {
		return fmt.Errorf("failed to set up line editing: %w", err)
	}
	defer reader.Close()
	return sh.Run(reader)
}
