package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"orator/api"
	"orator/audio"
	"orator/beep"
	"orator/config"
	"orator/doctor"
	"orator/encoder"
	"orator/log"
	"orator/practice"
	"orator/shutdown"
	"orator/speech"
)

var version = "dev"

type flags struct {
	config  string
	server  string
	logPath string
	email   string
	module  string
	device  string
	format  string
	script  string
	setup   bool
	noCues  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "orator",
		Short:         "Speaking practice: read aloud, listen and repeat, talk on a topic, grammar quiz",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPractice(cmd, f)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "config file (default $XDG_CONFIG_HOME/orator/config.toml)")
	pf.StringVar(&f.server, "server", "", "practice server URL")
	pf.StringVar(&f.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	pf.StringVar(&f.email, "email", "", "account email")
	addRunFlags(root, f)

	run := &cobra.Command{
		Use:   "run",
		Short: "Start the practice modules (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPractice(cmd, f)
		},
	}
	addRunFlags(run, f)

	quiz := &cobra.Command{
		Use:   "quiz",
		Short: "Go straight to the grammar quiz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.module = string(practice.ModuleD)
			return runPractice(cmd, f)
		},
	}

	root.AddCommand(run, quiz, loginCmd(f), signupCmd(f), devicesCmd(f), doctorCmd(f), versionCmd())
	return root
}

func addRunFlags(cmd *cobra.Command, f *flags) {
	fl := cmd.Flags()
	fl.StringVarP(&f.module, "module", "m", "A", "module to start in: A, B, C or D")
	fl.StringVar(&f.device, "device", "", "use named microphone device")
	fl.BoolVar(&f.setup, "setup", false, "select microphone device interactively")
	fl.StringVar(&f.format, "format", "", "upload format: wav or flac")
	fl.BoolVar(&f.noCues, "no-cues", false, "disable start/stop cue tones")
	fl.StringVar(&f.script, "script", "", "headless mode: replay this 16 kHz mono WAV and read commands from stdin")
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "orator %s\n", version)
		},
	}
}

// loadConfig layers explicitly set flags over the loaded configuration.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return nil, err
	}
	fl := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if fl.Lookup(name) != nil && fl.Changed(name) {
			*dst = v
		}
	}
	set("server", &cfg.Server, strings.TrimRight(f.server, "/"))
	set("logpath", &cfg.LogPath, f.logPath)
	set("email", &cfg.Email, f.email)
	set("device", &cfg.Device, f.device)
	set("format", &cfg.Format, strings.ToLower(f.format))
	if fl.Lookup("no-cues") != nil && fl.Changed("no-cues") {
		cfg.Cues = !f.noCues
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is everything a practice session needs, built once per command.
type app struct {
	cfg     *config.Config
	client  *api.Client
	audio   audio.Context
	device  *audio.DeviceInfo
	speaker speech.Speaker
	format  encoder.Format
}

func setupLogging(cfg *config.Config) {
	dir, err := log.ResolveDir(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to resolve log directory: %v\n", err)
		return
	}
	log.SetDir(dir)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
		return
	}
	initCrashLog()
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
}

// initCrashLog appends runtime crash output to crash_log.txt in the log dir.
func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func newClient(cfg *config.Config) *api.Client {
	return api.New(api.Options{
		BaseURL:   cfg.Server,
		Timeout:   cfg.Timeout(),
		UserAgent: "orator/" + version,
	})
}

func newApp(cmd *cobra.Command, f *flags) (*app, error) {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)
	if !cfg.Cues || f.script != "" {
		beep.Disable()
	}

	format, err := encoder.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, client: newClient(cfg), format: encoder.Negotiate(format)}

	if f.script != "" {
		fake, err := audio.NewFakeContextFromWAV(f.script, true)
		if err != nil {
			return nil, fmt.Errorf("loading WAV: %w", err)
		}
		a.audio = fake
	} else {
		ctx, err := audio.NewContext()
		if err != nil {
			log.Errorf("audio context init error: %v", err)
			return nil, fmt.Errorf("initializing audio: %w", err)
		}
		a.audio = ctx
		a.device = chooseDevice(ctx, cfg.Device, f.setup)
	}

	a.speaker, err = speech.New(cmd.Context(), speech.Config{
		Provider:          cfg.Speech.Provider,
		GoogleCredentials: cfg.Speech.Credentials,
		GoogleAPIKey:      cfg.Speech.APIKey,
		Voice:             cfg.Speech.Voice,
		Rate:              cfg.Speech.Rate,
	})
	if err != nil {
		log.Warnf("speech: %v", err)
		a.speaker = nil
	} else {
		log.Infof("speech synthesizer: %s", a.speaker.Name())
	}
	return a, nil
}

func chooseDevice(ctx audio.Context, name string, interactive bool) *audio.DeviceInfo {
	if interactive {
		dev, err := audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			return nil
		}
		return dev
	}
	if name == "" {
		return nil
	}
	dev, err := audio.FindDevice(ctx, name)
	if err != nil {
		log.Warnf("device %q: %v", name, err)
		fmt.Printf("Warning: %v, using the default device\n", err)
		return nil
	}
	return dev
}

func (a *app) opener() *audio.Opener {
	return &audio.Opener{
		Ctx:    a.audio,
		Device: a.device,
		Config: audio.CaptureConfig{SampleRate: encoder.SampleRate, Channels: encoder.Channels},
	}
}

func (a *app) timing() practice.Timing {
	return practice.Timing{
		Countdown:     a.cfg.Countdown,
		MaxDuration:   a.cfg.TopicLimit(),
		ResultsWindow: a.cfg.ResultsWindow(),
	}
}

func (a *app) Close() {
	if c, ok := a.speaker.(interface{ Close() error }); ok {
		c.Close()
	}
	if a.audio != nil {
		a.audio.Close()
	}
	log.Close()
}

func runPractice(cmd *cobra.Command, f *flags) error {
	kind, err := practice.ParseKind(f.module)
	if err != nil {
		return err
	}
	a, err := newApp(cmd, f)
	if err != nil {
		return err
	}
	defer a.Close()
	log.SessionStart(string(kind), a.cfg.Server, string(a.format))

	if f.script != "" {
		ctx, stop := shutdown.Context(cmd.Context())
		defer stop()
		return runScript(ctx, a, kind, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	m := newModel(a, kind)
	p := tea.NewProgram(m, tea.WithAltScreen())
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()

	final, err := p.Run()
	if fm, ok := final.(*model); ok {
		fm.release()
		log.SessionEnd(fm.attempts)
	}
	return err
}

var validate = validator.New()

func loginCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check account credentials against the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			setupLogging(cfg)
			defer log.Close()

			cred := api.Credentials{Email: cfg.Email}
			if cred.Email == "" {
				cred.Email = prompt(cmd, "Email: ")
			}
			cred.Password = promptSecret(cmd, "Password: ")
			if err := validate.Struct(cred); err != nil {
				return errors.New("a valid email and a password are required")
			}
			c := newClient(cfg)
			if err := c.Login(cmd.Context(), cred.Email, cred.Password); err != nil {
				return authError("Login", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s as %s\n", c.BaseURL(), cred.Email)
			return c.Logout(cmd.Context())
		},
	}
}

func signupCmd(f *flags) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			setupLogging(cfg)
			defer log.Close()

			cred := api.Credentials{Email: cfg.Email, Username: username}
			if cred.Email == "" {
				cred.Email = prompt(cmd, "Email: ")
			}
			if cred.Username == "" {
				cred.Username = prompt(cmd, "Username: ")
			}
			cred.Password = promptSecret(cmd, "Password: ")
			if err := validate.Struct(cred); err != nil || cred.Username == "" {
				return errors.New("email, username and password are required")
			}
			c := newClient(cfg)
			if err := c.Signup(cmd.Context(), cred); err != nil {
				return authError("Signup", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Run `orator` to start practising.\n", cred.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "display name")
	return cmd
}

func authError(op string, err error) error {
	if re, ok := api.IsRejected(err); ok {
		return fmt.Errorf("%s failed: %s", op, re.Reason())
	}
	return fmt.Errorf("%s failed: %w", op, err)
}

func prompt(cmd *cobra.Command, label string) string {
	fmt.Fprint(cmd.OutOrStdout(), label)
	var s string
	fmt.Fscanln(cmd.InOrStdin(), &s)
	return strings.TrimSpace(s)
}

func promptSecret(cmd *cobra.Command, label string) string {
	fmt.Fprint(cmd.OutOrStdout(), label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err == nil {
			return string(b)
		}
	}
	var s string
	fmt.Fscanln(cmd.InOrStdin(), &s)
	return s
}

func devicesCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List microphones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := audio.NewContext()
			if err != nil {
				return fmt.Errorf("initializing audio: %w", err)
			}
			defer ctx.Close()
			devices, err := ctx.Devices()
			if err != nil {
				return audio.Classify(err)
			}
			if len(devices) == 0 {
				return errors.New(audio.UserMessage(audio.ErrDeviceNotFound))
			}
			out := cmd.OutOrStdout()
			for _, d := range devices {
				suffix := ""
				if audio.IsBluetooth(d.Name) {
					suffix = "  (bluetooth: lower quality)"
				}
				fmt.Fprintf(out, "%s\t%s%s\n", d.ID, d.Name, suffix)
			}
			return nil
		},
	}
}

func doctorCmd(f *flags) *cobra.Command {
	var noClipboard bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, f)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx, stop := shutdown.Context(cmd.Context())
			defer stop()
			code := doctor.Run(ctx, doctor.Options{
				Backend:     a.client,
				Audio:       a.audio,
				Device:      a.device,
				Speaker:     a.speaker,
				Interactive: term.IsTerminal(int(os.Stdin.Fd())),
				Clipboard:   !noClipboard,
				In:          cmd.InOrStdin(),
				Out:         cmd.OutOrStdout(),
			})
			if code != 0 {
				return errors.New("diagnostics failed")
			}
			return nil
		},
	}
	addRunFlags(cmd, f)
	cmd.Flags().BoolVar(&noClipboard, "no-clipboard", false, "skip the clipboard check")
	return cmd
}
