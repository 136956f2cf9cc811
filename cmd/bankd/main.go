package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"bankcore/internal/bank"
	"bankcore/internal/config"
	"bankcore/internal/ident"
	"bankcore/internal/server"
	"bankcore/internal/storage"
)

const version = "1.0.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "bankd",
	Short: "Retail banking ledger daemon",
	Long:  "bankd serves the retail banking ledger: accounts, cards, transfers and card payments over HTTP.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the bankd version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("bankd " + version)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "bankd.toml", "Path to the TOML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	store := storage.NewMemory()
	log.Println("In-memory storage initialized.")

	journal, err := storage.OpenJournal(cfg.Storage.JournalPath)
	if err != nil {
		return err
	}
	defer journal.Close()
	log.Printf("Transaction journal open at %s", cfg.Storage.JournalPath)

	engine := bank.NewEngine(store.Accounts(), store.Cards(), store.Institutes(), store.Transactions(), ident.Source{}, nil)

	srv, err := server.New(store, engine, journal, cfg)
	if err != nil {
		return err
	}

	log.Printf("Server starting on %s", cfg.Listen.Addr)
	return http.ListenAndServe(cfg.Listen.Addr, srv.Handler())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
