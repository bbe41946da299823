package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lumix-edu/lumix-core/clients"
	cfg "github.com/lumix-edu/lumix-core/config"
	"github.com/lumix-edu/lumix-core/events"
	"github.com/lumix-edu/lumix-core/metrics"
	"github.com/lumix-edu/lumix-core/orchestrator"
	"github.com/lumix-edu/lumix-core/quota"
	"github.com/lumix-edu/lumix-core/session"
	"github.com/lumix-edu/lumix-core/speech"
)

// app is everything a command needs, built once per invocation.
type app struct {
	conf      *cfg.Root
	log       *logrus.Entry
	bus       *events.Bus
	sess      *session.Store
	gate      *quota.Gate
	assistant *orchestrator.Assistant
	narrator  *speech.Sequencer
	rdb       *redis.Client
	closers   []func() error
}

var (
	v   = viper.New()
	cur *app
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	if err := execute(rootCmd()); err != nil {
		logrus.WithError(err).Error("lumix failed")
		os.Exit(1)
	}
}

// execute runs root and releases what the command opened, whether it failed or not.
func execute(root *cobra.Command) error {
	cur = nil
	defer func() {
		if cur != nil {
			cur.close()
		}
	}()
	return root.Execute()
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.WithError(err).Debug("close failed")
		}
	}
	a.closers = nil
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lumix",
		Short:         "LumiX school assistant core",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := build(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			cur = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if cur == nil {
				return
			}
			if v.GetBool("metrics") {
				dumpMetrics(cmd)
			}
		},
	}

	f := root.PersistentFlags()
	f.String("config", "", "config file (default config/$CONFIG_ENV/config.yaml)")
	f.String("api-url", "", "AI backend base URL")
	f.String("token", "", "bearer token; empty runs a demo session")
	f.String("subscription", "", "subscription tier override")
	f.String("role", "teacher", "role for demo sessions or token override")
	f.String("log-level", "", "debug, info, warn, error")
	f.String("quota-backend", "", "memory or redis")
	f.String("redis-addr", "", "redis address for the quota ledger")
	f.Bool("metrics", false, "print counters after the command")

	for key, flag := range map[string]string{
		"config":             "config",
		"api.url":            "api-url",
		"token":              "token",
		"subscription":       "subscription",
		"role":               "role",
		"pipeline.log_level": "log-level",
		"quota.backend":      "quota-backend",
		"redis.addr":         "redis-addr",
		"metrics":            "metrics",
	} {
		_ = v.BindPFlag(key, f.Lookup(flag))
	}
	v.SetEnvPrefix("LUMIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	root.AddCommand(aiCmd(), narrateCmd(), menuCmd(), quotaCmd())
	return root
}

func loadConfig() (*cfg.Root, error) {
	var (
		c   *cfg.Root
		err error
	)
	if path := v.GetString("config"); path != "" {
		c, err = cfg.LoadFile(path)
	} else {
		c, err = cfg.Load()
	}
	if err != nil {
		return nil, err
	}
	override := func(key string, dst *string) {
		if s := v.GetString(key); s != "" {
			*dst = s
		}
	}
	override("api.url", &c.API.URL)
	override("pipeline.log_level", &c.Pipeline.LogLvl)
	override("quota.backend", &c.Quota.Backend)
	override("quota.session", &c.Quota.Session)
	override("redis.addr", &c.Redis.Addr)
	override("redis.password", &c.Redis.Password)
	override("speech.locale", &c.Speech.Locale)
	override("paths.outputs", &c.Paths.Outputs)
	return c, c.Validate()
}

func build(ctx context.Context, out io.Writer) (*app, error) {
	conf, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(conf.Pipeline.LogLvl); err == nil {
		logger.SetLevel(lvl)
	}
	log := logger.WithFields(logrus.Fields{"app": conf.Pipeline.Name, "version": conf.Pipeline.Version})

	a := &app{conf: conf, log: log, bus: events.NewBus()}
	a.bus.Subscribe(func(e events.Event) {
		l := log.WithFields(logrus.Fields{"event": e.Type, "status": e.Status})
		switch e.Type {
		case events.TypeAuth:
			l.Warn("session expired, signed out")
		case events.TypePaywall:
			l.WithField("code", e.Code).Warn("upgrade required")
		}
	})

	ledger, err := a.ledger(ctx)
	if err != nil {
		return nil, err
	}
	a.gate = quota.NewGate(ledger, conf.Quota.Ceiling, a.bus, log)

	s, err := resolveSession()
	if err != nil {
		return nil, err
	}
	a.sess = session.NewStore(s, log, a.gate)

	httpc := clients.NewHTTP(conf.API.URL, conf.Timeout(), a.sess, a.bus, log)
	a.assistant = orchestrator.NewAssistant(httpc, a.sess, a.gate, log)

	a.narrator = speech.NewSequencer(speech.NewWriterEngine(out, conf.Speech.WPS), speech.DefaultPhonetics(), log)
	if conf.Speech.Muted {
		a.narrator.Mute()
	}
	log.WithFields(logrus.Fields{"role": s.Role, "demo": s.IsDemo(), "quota": conf.Quota.Backend}).Debug("ready")
	return a, nil
}

func (a *app) ledger(ctx context.Context) (quota.Ledger, error) {
	q := a.conf.Quota
	if q.Backend != "redis" {
		return quota.NewMemoryLedger(q.Prefix), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     a.conf.Redis.Addr,
		Password: a.conf.Redis.Password,
		DB:       a.conf.Redis.DB,
	})
	if ctx == nil {
		ctx = context.Background()
	}
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "redis ping %s", a.conf.Redis.Addr)
	}
	a.rdb = rdb
	a.closers = append(a.closers, rdb.Close)
	return quota.NewRedisLedger(rdb, q.Prefix, q.Session, a.conf.SessionTTL()), nil
}

// resolveSession decodes --token when given; otherwise the caller is a demo visitor.
func resolveSession() (session.Session, error) {
	s := session.Session{Token: session.DemoToken, Role: "teacher", Subscription: "demo"}
	if tok := v.GetString("token"); tok != "" {
		var err error
		if s, err = session.FromToken(tok); err != nil {
			return s, err
		}
	}
	if r := v.GetString("role"); r != "" && (s.Role == "" || s.IsDemo()) {
		s.Role = r
	}
	if sub := v.GetString("subscription"); sub != "" {
		s.Subscription = sub
	}
	return s, nil
}

func dumpMetrics(cmd *cobra.Command) {
	mfs, err := metrics.Registry().Gather()
	if err != nil {
		cur.log.WithError(err).Warn("metrics gather failed")
		return
	}
	out := cmd.ErrOrStderr()
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			fmt.Fprintf(out, "%s{%s} %v\n", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
}
