package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sankofalearn/sankofa-go/internal/cliconfig"
	"github.com/sankofalearn/sankofa-go/internal/store/cachestore"
	"github.com/sankofalearn/sankofa-go/pkg/api"
	"github.com/sankofalearn/sankofa-go/pkg/momo"
)

// runWithEnvironment wires dependencies, runs fn under a signal-aware
// context, and tears the environment down afterwards.
func runWithEnvironment(cmd *cobra.Command, cfg *cliconfig.Config, fn func(ctx context.Context, env *environment) error) error {
	env, cleanup, err := newEnvironment(cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return fn(ctx, env)
}

func printJSON(value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func newLoginCommand(cfg *cliconfig.Config) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Authenticate and store the session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				result, err := env.client.Login(ctx, args[0], password)
				if err != nil {
					return err
				}
				fmt.Printf("logged in as %s %s <%s>\n", result.User.FirstName, result.User.LastName, result.User.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(cfg *cliconfig.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				if err := env.client.Logout(ctx); err != nil {
					return err
				}
				fmt.Println("logged out")
				return nil
			})
		},
	}
}

func newWhoamiCommand(cfg *cliconfig.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				user, err := env.client.CurrentUser(ctx)
				if err != nil {
					return err
				}
				return printJSON(user)
			})
		},
	}
}

func newBundlesCommand(cfg *cliconfig.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "bundles [id]",
		Short: "List bundles, or show one bundle with its subjects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				if len(args) == 0 {
					bundles, err := env.client.ListBundles(ctx)
					if err != nil {
						return err
					}
					return printJSON(bundles)
				}
				bundleID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("bundle id %q is not a number", args[0])
				}
				subjects, err := env.client.BundleSubjects(ctx, bundleID)
				if err != nil {
					return err
				}
				return printJSON(subjects)
			})
		},
	}
}

func newCoursesCommand(cfg *cliconfig.Config) *cobra.Command {
	var subjectID int64
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List the courses of a subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				courses, err := env.client.ListCourses(ctx, subjectID)
				if err != nil {
					return err
				}
				return printJSON(courses)
			})
		},
	}
	cmd.Flags().Int64Var(&subjectID, "subject", 0, "subject id")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newPurchasesCommand(cfg *cliconfig.Config) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "purchases",
		Short: "List owned bundles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				purchases, err := env.client.ListPurchases(ctx, page)
				if err != nil {
					return err
				}
				return printJSON(purchases)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	return cmd
}

func newCheckoutCommand(cfg *cliconfig.Config) *cobra.Command {
	var (
		bundleID int64
		phone    string
		amount   float64
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Buy a bundle with MTN mobile money",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				poller, err := momo.NewPoller(env.client,
					momo.WithInterval(env.cfg.PollInterval),
					momo.WithMaxAttempts(env.cfg.PollMaxAttempts),
					momo.WithLogger(env.logger),
				)
				if err != nil {
					return err
				}

				transaction, err := poller.Start(ctx, phone, amount, bundleID, momo.Callbacks{
					OnPromptSent: func(transactionID string) {
						fmt.Printf("payment prompt sent to %s, approve it on your phone (transaction %s)\n", phone, transactionID)
					},
					OnStateChange: func(status momo.Status) {
						fmt.Printf("payment status: %s\n", status)
					},
				})
				if err != nil {
					return err
				}

				select {
				case <-ctx.Done():
					transaction.Stop()
					fmt.Println("checkout abandoned")
					return nil
				case <-transaction.Done():
				}

				if failure := transaction.Err(); failure != nil {
					return failure
				}
				fmt.Printf("payment confirmed, transaction %s\n", transaction.TransactionID())
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&bundleID, "bundle", 0, "bundle id to purchase")
	cmd.Flags().StringVar(&phone, "phone", "", "MTN phone number (e.g. 0241234567)")
	cmd.Flags().Float64Var(&amount, "amount", 0, "amount in GHS")
	_ = cmd.MarkFlagRequired("bundle")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newExamCommand(cfg *cliconfig.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exam",
		Short: "BECE practice resources",
	}
	cmd.AddCommand(
		newExamSubjectsCommand(cfg),
		newExamYearsCommand(cfg),
		newExamPaperCommand(cfg),
		newExamSubmitCommand(cfg),
	)
	return cmd
}

func newExamSubjectsCommand(cfg *cliconfig.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List practice subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				subjects, err := env.client.ListExamSubjects(ctx)
				if err != nil {
					return err
				}
				return printJSON(subjects)
			})
		},
	}
}

func newExamYearsCommand(cfg *cliconfig.Config) *cobra.Command {
	var subjectID int64
	cmd := &cobra.Command{
		Use:   "years",
		Short: "List past-paper years for a subject",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				years, err := env.client.ListExamYears(ctx, subjectID)
				if err != nil {
					return err
				}
				return printJSON(years)
			})
		},
	}
	cmd.Flags().Int64Var(&subjectID, "subject", 0, "subject id")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func newExamPaperCommand(cfg *cliconfig.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "paper <id>",
		Short: "Show a past paper with its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				paperID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("paper id %q is not a number", args[0])
				}
				paper, err := env.client.GetExamPaper(ctx, paperID)
				if err != nil {
					return err
				}
				return printJSON(paper)
			})
		},
	}
}

func newExamSubmitCommand(cfg *cliconfig.Config) *cobra.Command {
	var (
		paperID int64
		answers string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a graded practice attempt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				selected, err := parseAnswers(answers)
				if err != nil {
					return err
				}
				result, err := env.client.SubmitAttempt(ctx, paperID, selected)
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}
	cmd.Flags().Int64Var(&paperID, "paper", 0, "paper id")
	cmd.Flags().StringVar(&answers, "answers", "", "answers as question=answer pairs, comma separated")
	_ = cmd.MarkFlagRequired("paper")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

// parseAnswers turns "12=3,13=1" into selected-answer pairs.
func parseAnswers(raw string) ([]api.SelectedAnswer, error) {
	pairs := strings.Split(raw, ",")
	selected := make([]api.SelectedAnswer, 0, len(pairs))
	for _, pair := range pairs {
		trimmed := strings.TrimSpace(pair)
		if trimmed == "" {
			continue
		}
		parts := strings.SplitN(trimmed, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("answer %q is not a question=answer pair", trimmed)
		}
		questionID, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("question id %q is not a number", parts[0])
		}
		answerID, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("answer id %q is not a number", parts[1])
		}
		selected = append(selected, api.SelectedAnswer{QuestionID: questionID, AnswerID: answerID})
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no answers provided")
	}
	return selected, nil
}

func newDashboardCommand(cfg *cliconfig.Config) *cobra.Command {
	var (
		refresh bool
		maxAge  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show cached practice statistics, purchases, and tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				if refresh {
					if err := env.cache.RefreshDashboard(ctx, env.client); err != nil {
						return err
					}
				}
				for _, key := range []string{cachestore.KeyDashboardStats, cachestore.KeyPurchases, cachestore.KeyTasks} {
					payload, err := env.cache.Payload(ctx, key, maxAge)
					if err != nil {
						fmt.Fprintf(os.Stderr, "%s: not cached, run with --refresh\n", key)
						continue
					}
					fmt.Printf("%s:\n%s\n", key, string(payload))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch fresh data before showing")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "reject cached data older than this")
	return cmd
}

func newTasksCommand(cfg *cliconfig.Config) *cobra.Command {
	var completeID int64
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List dashboard tasks, or complete one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithEnvironment(cmd, cfg, func(ctx context.Context, env *environment) error {
				if completeID > 0 {
					task, err := env.client.CompleteTask(ctx, completeID)
					if err != nil {
						return err
					}
					return printJSON(task)
				}
				tasks, err := env.client.ListTasks(ctx)
				if err != nil {
					return err
				}
				return printJSON(tasks)
			})
		},
	}
	cmd.Flags().Int64Var(&completeID, "complete", 0, "task id to mark complete")
	return cmd
}
