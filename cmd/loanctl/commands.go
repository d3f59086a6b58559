package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"smart-loan-recovery/internal/adapter/repository/gormsql"
	"smart-loan-recovery/internal/config"
	"smart-loan-recovery/internal/infrastructure/db"
	"smart-loan-recovery/internal/infrastructure/events"
	"smart-loan-recovery/internal/infrastructure/logging"
	"smart-loan-recovery/internal/usecase/loan"
	"smart-loan-recovery/internal/usecase/snapshot"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// store is everything a command needs; close releases it.
type store struct {
	db           *gorm.DB
	log          *slog.Logger
	pub          events.Publisher
	defaultAfter int
	close        func()
}

type opener func() (*store, error)

// envStore opens the store configured by the environment and migrates it.
func envStore() (*store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogLevel)
	gdb, err := db.OpenGorm(cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := gormsql.AutoMigrate(gdb); err != nil {
		_ = db.Close(gdb)
		return nil, fmt.Errorf("migrate: %w", err)
	}
	pub := events.New(cfg.AMQPURL, logger)
	return &store{
		db:           gdb,
		log:          logger,
		pub:          pub,
		defaultAfter: cfg.DefaultAfterMissed,
		close: func() {
			pub.Close()
			_ = db.Close(gdb)
		},
	}, nil
}

func (s *store) snapshots() *snapshot.Usecase {
	return snapshot.NewUsecase(gormsql.NewUserRepository(s.db), gormsql.NewLoanRepository(s.db), gormsql.NewGormUoW(s.db))
}

func (s *store) loans() *loan.Usecase {
	users := gormsql.NewUserRepository(s.db)
	return loan.NewUsecase(gormsql.NewLoanRepository(s.db), users, gormsql.NewGormUoW(s.db), s.pub, s.defaultAfter, s.log)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the users and loans tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func sweepCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one overdue sweep and print the counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.close()
			res, err := s.loans().FlagOverdues(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func exportCmd(open opener) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write users.json and loans.json to a directory",
		Example: `  loanctl export --dir ./backup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			defer s.close()
			snap, err := s.snapshots().Export(cmd.Context())
			if err != nil {
				return err
			}
			if err := snapshot.WriteDir(dir, snap); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snapshot.ImportResult{Users: len(snap.Users), Loans: len(snap.Loans)})
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "target directory")
	return cmd
}

func importCmd(open opener) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert users.json and loans.json from a directory in one transaction",
		Example: `  loanctl import --dir ./backup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.ReadDir(dir)
			if err != nil {
				return err
			}
			s, err := open()
			if err != nil {
				return err
			}
			defer s.close()
			res, err := s.snapshots().Import(cmd.Context(), snap)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "source directory")
	return cmd
}
