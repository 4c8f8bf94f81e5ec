package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/exam-records-api/internal/models"
	"github.com/noah-isme/exam-records-api/internal/repository"
	"github.com/noah-isme/exam-records-api/internal/service"
	"github.com/noah-isme/exam-records-api/pkg/cache"
	"github.com/noah-isme/exam-records-api/pkg/config"
	"github.com/noah-isme/exam-records-api/pkg/database"
	"github.com/noah-isme/exam-records-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "examctl",
		Short:        "Administrative tasks for the exam records database",
		SilenceUsage: true,
	}
	root.AddCommand(migrateCmd(), teacherCmd(), studentsCmd())
	return root
}

// env holds the dependencies shared by every subcommand.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	redis  *redis.Client
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	e := &env{cfg: cfg, logger: logr, db: db}
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, cached reports will expire on their own", zap.Error(err))
		} else {
			e.redis = client
		}
	}
	return e, nil
}

func (e *env) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	_ = e.db.Close()
	_ = e.logger.Sync()
}

func (e *env) cacheService() *service.CacheService {
	repo := repository.NewCacheRepository(e.redis, "exam:cache:", e.logger)
	return service.NewCacheService(repo, nil, e.cfg.Reports.CacheTTL, e.logger, e.redis != nil)
}

func (e *env) teacherService() *service.TeacherService {
	return service.NewTeacherService(
		repository.NewTeacherRepository(e.db),
		e.cacheService(),
		models.ParseClassLevels(e.cfg.ClassLevels),
		e.cfg.Auth.BcryptCost,
		validator.New(),
		e.logger,
	)
}

func (e *env) studentService() *service.StudentService {
	return service.NewStudentService(
		repository.NewStudentRepository(e.db),
		repository.NewTeacherRepository(e.db),
		e.cacheService(),
		models.ParseClassLevels(e.cfg.ClassLevels),
		validator.New(),
		e.logger,
	)
}

func withEnv(run func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		return run(cmd, args, e)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect the embedded database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{database.MigrateUp, database.MigrateDown, database.MigrateStatus},
		RunE: withEnv(func(_ *cobra.Command, args []string, e *env) error {
			if err := database.Migrate(e.db.DB, args[0]); err != nil {
				return fmt.Errorf("migrate %s: %w", args[0], err)
			}
			e.logger.Info("migrations finished", zap.String("direction", args[0]))
			return nil
		}),
	}
	return cmd
}

func teacherCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teacher",
		Short: "Manage teacher accounts",
	}
	cmd.AddCommand(teacherCreateCmd(), teacherDeleteCmd(), teacherListCmd())
	return cmd
}

func teacherCreateCmd() *cobra.Command {
	var req models.ProvisionTeacherRequest
	var class string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Provision a teacher account",
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			if req.Password == "" {
				req.Password = os.Getenv("EXAMCTL_TEACHER_PASSWORD")
			}
			req.ClassLevel = models.ClassLevel(class)
			teacher, err := e.teacherService().Provision(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created teacher %d (%s, %s, eo=%t)\n", teacher.ID, teacher.Name, teacher.ClassLevel, teacher.IsEO)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "Teacher login name (required)")
	f.StringVar(&req.Password, "password", "", "Initial password (or set EXAMCTL_TEACHER_PASSWORD)")
	f.StringVar(&req.Phone, "phone", "", "Contact phone number")
	f.StringVar(&class, "class", "", "Class level taught, e.g. SS1 (required)")
	f.BoolVar(&req.IsEO, "eo", false, "Grant examination officer access")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}

func teacherDeleteCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a teacher account, keeping their students and results",
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			if err := e.teacherService().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted teacher %d\n", id)
			return nil
		}),
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Teacher id (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func teacherListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List teacher accounts",
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			teachers, err := e.teacherService().List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCLASS\tEO\tPHONE")
			for _, t := range teachers {
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", t.ID, t.Name, t.ClassLevel, t.IsEO, t.Phone)
			}
			return w.Flush()
		}),
	}
}

func studentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Student maintenance tasks",
	}
	cmd.AddCommand(studentsGenerateCmd())
	return cmd
}

func studentsGenerateCmd() *cobra.Command {
	var req models.GenerateStudentsRequest
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Bulk insert random students with sequential registration numbers",
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			out := cmd.OutOrStdout()
			inserted, err := e.studentService().Generate(cmd.Context(), req, func(n int64) {
				fmt.Fprintf(out, "inserted %d students\n", n)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "done: %d of %d students created\n", inserted, req.Total)
			return nil
		}),
	}
	f := cmd.Flags()
	f.IntVar(&req.Total, "total", 0, "Number of students to create (required)")
	f.IntVar(&req.Start, "start", 1, "First registration number sequence")
	_ = cmd.MarkFlagRequired("total")
	return cmd
}
