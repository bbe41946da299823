package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lumix-edu/lumix-core/clients"
	"github.com/lumix-edu/lumix-core/navigation"
	"github.com/lumix-edu/lumix-core/orchestrator"
	"github.com/lumix-edu/lumix-core/quota"
)

// feature is one `lumix ai` subcommand; run returns the artifact to print.
type feature struct {
	use   string
	short string
	args  cobra.PositionalArgs
	flags func(*cobra.Command)
	run   func(cmd *cobra.Command, args []string) (any, error)
}

func aiCmd() *cobra.Command {
	ai := &cobra.Command{Use: "ai", Short: "Run an AI feature"}
	ai.PersistentFlags().Bool("save", false, "export the result under paths.outputs")
	ai.PersistentFlags().Bool("narrate", false, "read the result aloud")

	str := func(cmd *cobra.Command, name string) string {
		s, _ := cmd.Flags().GetString(name)
		return s
	}
	num := func(cmd *cobra.Command, name string) int {
		n, _ := cmd.Flags().GetInt(name)
		return n
	}

	features := []feature{
		{
			use: "quiz <topic>", short: "Generate a practice quiz", args: cobra.ExactArgs(1),
			flags: func(c *cobra.Command) { c.Flags().String("difficulty", "medium", "easy, medium or hard") },
			run: func(cmd *cobra.Command, args []string) (any, error) {
				return cur.assistant.GenerateQuiz(cmd.Context(), args[0], str(cmd, "difficulty"))
			},
		},
		{
			use: "lesson-plan <topic>", short: "Draft a lesson plan", args: cobra.ExactArgs(1),
			flags: func(c *cobra.Command) { c.Flags().String("grade", "10", "grade level") },
			run: func(cmd *cobra.Command, args []string) (any, error) {
				return cur.assistant.GenerateLessonPlan(cmd.Context(), args[0], str(cmd, "grade"))
			},
		},
		{
			use: "explain <topic> <question>", short: "Resolve a confusing question", args: cobra.ExactArgs(2),
			flags: func(c *cobra.Command) { c.Flags().String("grade", "10", "grade level") },
			run: func(cmd *cobra.Command, args []string) (any, error) {
				return cur.assistant.NeuralExplain(cmd.Context(), args[0], args[1], str(cmd, "grade"))
			},
		},
		{
			use: "school <url>", short: "Derive a school profile from its website", args: cobra.ExactArgs(1),
			run: func(cmd *cobra.Command, args []string) (any, error) {
				return cur.assistant.AnalyzeSchoolURL(cmd.Context(), args[0])
			},
		},
		{
			use: "syllabus <topic>", short: "Plan a multi-week syllabus", args: cobra.ExactArgs(1),
			flags: func(c *cobra.Command) {
				c.Flags().String("grade", "", "grade level")
				c.Flags().Int("weeks", 4, "number of weeks (1-52)")
			},
			run: func(cmd *cobra.Command, args []string) (any, error) {
				return cur.assistant.GenerateSyllabus(cmd.Context(), args[0], str(cmd, "grade"), num(cmd, "weeks"))
			},
		},
		{
			use: "flashcards <topic>", short: "Generate flashcards", args: cobra.ExactArgs(1),
			flags: func(c *cobra.Command) { c.Flags().Int("count", 10, "number of cards (1-50)") },
			run: func(cmd *cobra.Command, args []string) (any, error) {
				return cur.assistant.GenerateFlashcards(cmd.Context(), args[0], num(cmd, "count"))
			},
		},
		{
			use: "structured-quiz <topic>", short: "Generate a multiple-choice quiz", args: cobra.ExactArgs(1),
			flags: func(c *cobra.Command) { c.Flags().Int("count", 10, "number of questions (1-50)") },
			run: func(cmd *cobra.Command, args []string) (any, error) {
				return cur.assistant.GenerateStructuredQuiz(cmd.Context(), args[0], num(cmd, "count"))
			},
		},
		{
			use: "predict", short: "Predict a student's risk level", args: cobra.NoArgs,
			flags: studentFlags,
			run: func(cmd *cobra.Command, _ []string) (any, error) {
				s, err := studentFrom(cmd)
				if err != nil {
					return nil, err
				}
				return cur.assistant.PredictStudentOutcome(cmd.Context(), s)
			},
		},
		{
			use: "report", short: "Write a parent report", args: cobra.NoArgs,
			flags: studentFlags,
			run: func(cmd *cobra.Command, _ []string) (any, error) {
				s, err := studentFrom(cmd)
				if err != nil {
					return nil, err
				}
				return cur.assistant.GenerateParentReport(cmd.Context(), s)
			},
		},
		{
			use: "tutor <topic>", short: "Explain a topic for a student", args: cobra.ExactArgs(1),
			flags: studentFlags,
			run: func(cmd *cobra.Command, args []string) (any, error) {
				s, err := studentFrom(cmd)
				if err != nil {
					return nil, err
				}
				return cur.assistant.ExplainTopic(cmd.Context(), args[0], s)
			},
		},
		{
			use: "agent <query>", short: "Ask the system coordinator about the roster", args: cobra.MinimumNArgs(1),
			flags: func(c *cobra.Command) { c.Flags().String("students", "", "JSON file with the student roster") },
			run: func(cmd *cobra.Command, args []string) (any, error) {
				var roster []orchestrator.Student
				if err := readJSON(str(cmd, "students"), &roster); err != nil {
					return nil, err
				}
				return cur.assistant.AskSystemAgent(cmd.Context(), strings.Join(args, " "), roster, cur.sess.Get().Role, nil)
			},
		},
		{
			use: "insights", short: "Summarise roster trends", args: cobra.NoArgs,
			flags: func(c *cobra.Command) { c.Flags().String("students", "", "JSON file with the student roster") },
			run: func(cmd *cobra.Command, _ []string) (any, error) {
				var roster []orchestrator.Student
				if err := readJSON(str(cmd, "students"), &roster); err != nil {
					return nil, err
				}
				return cur.assistant.GenerateInsights(roster), nil
			},
		},
		{
			use: "finance", short: "Audit the fee ledger", args: cobra.NoArgs,
			flags: func(c *cobra.Command) { c.Flags().String("fees", "", "JSON file with fee records") },
			run: func(cmd *cobra.Command, _ []string) (any, error) {
				var fees []orchestrator.FeeRecord
				if err := readJSON(str(cmd, "fees"), &fees); err != nil {
					return nil, err
				}
				return cur.assistant.AnalyzeFinancials(cmd.Context(), fees)
			},
		},
		{
			use: "ethics <text>", short: "Pre-screen text before sending it", args: cobra.MinimumNArgs(1),
			run: func(_ *cobra.Command, args []string) (any, error) {
				return orchestrator.CheckEthics(strings.Join(args, " ")), nil
			},
		},
		{
			use: "landing <prompt>", short: "Talk to the public landing-page assistant", args: cobra.MinimumNArgs(1),
			run: func(cmd *cobra.Command, args []string) (any, error) {
				return cur.assistant.LandingChat(cmd.Context(), strings.Join(args, " "), []clients.Turn{}), nil
			},
		},
	}

	for _, f := range features {
		ai.AddCommand(f.command())
	}
	return ai
}

func (f feature) command() *cobra.Command {
	c := &cobra.Command{
		Use:   f.use,
		Short: f.short,
		Args:  f.args,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := f.run(cmd, args)
			if err != nil {
				if quota.IsExceeded(err) {
					return errors.Wrap(err, "demo allowance used up, sign in to continue")
				}
				return err
			}
			return emit(cmd, strings.Fields(f.use)[0], out)
		},
	}
	if f.flags != nil {
		f.flags(c)
	}
	return c
}

// emit prints out, then optionally exports and narrates it.
func emit(cmd *cobra.Command, name string, out any) error {
	var text string
	switch o := out.(type) {
	case string:
		text = o
	case orchestrator.LandingReply:
		text = o.Text
		if o.Action != "" {
			text += fmt.Sprintf("\n[%s -> %s]", o.Action, o.Target)
		}
	default:
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encode result")
		}
		text = string(b)
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)

	if save, _ := cmd.Flags().GetBool("save"); save {
		path, err := orchestrator.Export(cur.conf.Paths.Outputs, name, out)
		if err != nil {
			return err
		}
		cur.log.WithField("path", path).Info("result exported")
	}
	if narrate, _ := cmd.Flags().GetBool("narrate"); narrate {
		if s, ok := out.(string); ok {
			<-cur.narrator.Narrate(s, cur.conf.Speech.Locale)
		}
	}
	return nil
}

func studentFlags(c *cobra.Command) {
	f := c.Flags()
	f.String("student", "", "JSON file with one student")
	f.String("id", "", "student id")
	f.String("name", "Student", "student name")
	f.Int("grade-level", 10, "grade level")
	f.Float64("gpa", 3.0, "GPA (0-4)")
	f.Float64("attendance", 90, "attendance percent")
	f.Float64("behavior", 80, "behavior score (0-100)")
}

func studentFrom(cmd *cobra.Command) (orchestrator.Student, error) {
	f := cmd.Flags()
	var s orchestrator.Student
	if path, _ := f.GetString("student"); path != "" {
		return s, readJSON(path, &s)
	}
	s.ID, _ = f.GetString("id")
	s.Name, _ = f.GetString("name")
	s.GradeLevel, _ = f.GetInt("grade-level")
	s.GPA, _ = f.GetFloat64("gpa")
	s.Attendance, _ = f.GetFloat64("attendance")
	s.BehaviorScore, _ = f.GetFloat64("behavior")
	return s, nil
}

// readJSON decodes path into v; an empty path leaves v untouched.
func readJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	return errors.Wrapf(json.Unmarshal(b, v), "decode %s", path)
}

func narrateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "narrate <text>",
		Short: "Speak text sentence by sentence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locale, _ := cmd.Flags().GetString("locale")
			if locale == "" {
				locale = cur.conf.Speech.Locale
			}
			<-cur.narrator.Narrate(strings.Join(args, " "), locale)
			return nil
		},
	}
	c.Flags().String("locale", "", "BCP-47 locale, e.g. en-US or ur-PK")
	return c
}

func menuCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "menu",
		Short: "List the navigation entries visible to the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			off, _ := cmd.Flags().GetStringSlice("disable")
			mods := navigation.AllModules()
			for _, m := range off {
				switch strings.ToLower(m) {
				case "transport":
					mods.Transport = false
				case "library":
					mods.Library = false
				case "finance":
					mods.Finance = false
				case "nexus":
					mods.Nexus = false
				default:
					return errors.Errorf("unknown module %q", m)
				}
			}
			s := cur.sess.Get()
			for _, it := range navigation.Items(s.Role, mods, s.IsDemo()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", it.ID, it.Label)
			}
			return nil
		},
	}
	c.Flags().StringSlice("disable", nil, "school modules switched off (transport, library, finance, nexus)")
	return c
}

func quotaCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "quota",
		Short: "Show or reset the demo AI allowance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if reset, _ := cmd.Flags().GetBool("reset"); reset {
				if err := cur.gate.Reset(ctx); err != nil {
					return err
				}
			}
			for _, name := range orchestrator.GatedFeatures {
				st, err := cur.gate.State(ctx, name)
				if err != nil {
					return err
				}
				left, err := cur.gate.Remaining(ctx, name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-10s %d/%d left\n", name, st, left, cur.gate.Ceiling())
			}
			return nil
		},
	}
	c.Flags().Bool("reset", false, "clear every count first")
	return c
}
