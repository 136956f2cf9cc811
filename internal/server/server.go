// Package server is the HTTP presentation layer: it translates validated
// requests into engine and repository calls and shapes responses for
// external consumers (masked card numbers, formatted timestamps).
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bankcore/internal/bank"
	"bankcore/internal/config"
	"bankcore/internal/storage"
)

type Server struct {
	store    *storage.Memory
	engine   *bank.Engine
	journal  *storage.Journal // optional audit sink, may be nil
	cards    config.CardDefaults
	currency string
	router   *mux.Router
}

func New(store *storage.Memory, engine *bank.Engine, journal *storage.Journal, cfg config.Config) (*Server, error) {
	defaults, err := cfg.CardDefaults()
	if err != nil {
		return nil, err
	}
	s := &Server{
		store:    store,
		engine:   engine,
		journal:  journal,
		cards:    defaults,
		currency: cfg.Bank.DefaultCurrency,
	}
	s.routes()
	return s, nil
}

// Handler returns the full middleware chain around the router.
func (s *Server) Handler() http.Handler {
	return loggingMiddleware(s.router)
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(metricsMiddleware)

	r.HandleFunc("/register", s.registerUser).Methods("POST")
	r.HandleFunc("/login", s.loginUser).Methods("POST")

	r.HandleFunc("/accounts", s.createAccount).Methods("POST")
	r.HandleFunc("/users/{userId}/accounts", s.listUserAccounts).Methods("GET")

	r.HandleFunc("/cards", s.issueCard).Methods("POST")
	r.HandleFunc("/accounts/{accountId}/cards", s.listAccountCards).Methods("GET")

	r.HandleFunc("/transfers", s.transfer).Methods("POST")
	r.HandleFunc("/deposits", s.deposit).Methods("POST")
	r.HandleFunc("/withdrawals", s.withdraw).Methods("POST")
	r.HandleFunc("/payments/card", s.cardPayment).Methods("POST")

	r.HandleFunc("/institutes", s.createInstitute).Methods("POST")
	r.HandleFunc("/institutes", s.listInstitutes).Methods("GET")

	r.HandleFunc("/accounts/{accountId}/history", s.accountHistory).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", s.health).Methods("GET")

	s.router = r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
