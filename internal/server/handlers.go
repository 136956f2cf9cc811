package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bankcore/internal/bank"
	"bankcore/internal/ident"
)

type registerRequest struct {
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	DateOfBirth string `json:"date_of_birth"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createAccountRequest struct {
	UserID         string          `json:"user_id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type issueCardRequest struct {
	AccountID   string          `json:"account_id"`
	Kind        string          `json:"kind"`
	PIN         string          `json:"pin"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	DailyLimit  decimal.Decimal `json:"daily_limit"`
	DailyUses   int             `json:"daily_uses"`
	MaxDraw     decimal.Decimal `json:"max_draw"`
}

type moveMoneyRequest struct {
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	AccountID     string          `json:"account_id"`
	CardNumber    string          `json:"card_number"`
	MerchantID    string          `json:"merchant_id"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	Note          string          `json:"note"`
}

type createInstituteRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type userResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type accountResponse struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	OwnerID  string          `json:"owner_id"`
}

type cardResponse struct {
	Number    string `json:"number"` // always masked
	Kind      string `json:"kind"`
	Expiry    string `json:"expiry"`
	AccountID string `json:"account_id"`
}

type transactionResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	State      string          `json:"state"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Note       string          `json:"note,omitempty"`
	SenderID   string          `json:"sender_id"`
	ReceiverID string          `json:"receiver_id,omitempty"`
	MerchantID string          `json:"merchant_id,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

func newUserResponse(u *bank.User) userResponse {
	return userResponse{ID: u.ID(), Name: u.Name(), Surname: u.Surname(), Email: u.Email(), Phone: u.Phone()}
}

func newAccountResponse(a *bank.Account) accountResponse {
	return accountResponse{ID: a.ID(), Name: a.Name(), Currency: a.Currency(), Balance: a.Balance(), OwnerID: a.OwnerID()}
}

func newCardResponse(c bank.Card) cardResponse {
	resp := cardResponse{
		Number: c.MaskedNumber(),
		Kind:   string(c.Kind()),
		Expiry: c.ExpiryDate().Format("01/06"),
	}
	if acct := c.Account(); acct != nil {
		resp.AccountID = acct.ID()
	}
	return resp
}

func newTransactionResponse(tx *bank.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:        tx.ID(),
		Type:      string(tx.Type()),
		State:     string(tx.State()),
		Amount:    tx.Amount(),
		Currency:  tx.Currency(),
		Note:      tx.Note(),
		SenderID:  tx.Sender().ID(),
		CreatedAt: tx.CreatedAt().Format(time.RFC3339),
	}
	if r := tx.Recipient(); r != nil {
		resp.ReceiverID = r.ID()
	}
	if m := tx.Merchant(); m != nil {
		resp.MerchantID = m.ID()
	}
	return resp
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	r.Body.Close()
	return true
}

func (s *Server) registerUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Name, email, and password are required")
		return
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		respondError(w, http.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
		return
	}
	user, err := bank.NewUser(ident.NewID(), req.Name, req.Surname, dob, req.Email, req.Phone, req.Password)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	if err := s.store.Users().Save(user); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	log.Printf("User registered: %s (ID: %s)", user.Email(), user.ID())
	respondJSON(w, http.StatusCreated, newUserResponse(user))
}

func (s *Server) loginUser(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, ok := s.store.Users().FindByEmail(req.Email)
	if !ok || !user.CheckPassword(req.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	log.Printf("User logged in: %s", user.ID())
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Login successful",
		"user_id": user.ID(),
	})
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, ok := s.store.Users().FindByID(req.UserID)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("User %s not found", req.UserID))
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}
	name := req.Name
	if name == "" {
		name = ident.AccountNumber()
	}
	account, err := bank.NewAccountWithBalance(ident.NewID(), name, currency, req.InitialBalance, user.ID())
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	if err := s.store.Accounts().Save(account); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to create account: %v", err))
		return
	}
	user.AddAccount(account)
	log.Printf("Account created: %s (%s) for user %s", account.ID(), account.Name(), user.ID())
	respondJSON(w, http.StatusCreated, newAccountResponse(account))
}

func (s *Server) listUserAccounts(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	accounts := s.store.AccountsByUser(userID)
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, newAccountResponse(a))
	}
	log.Printf("Fetched %d accounts for user %s", len(out), userID)
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) issueCard(w http.ResponseWriter, r *http.Request) {
	var req issueCardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	account, ok := s.store.Accounts().FindByID(req.AccountID)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Account %s not found", req.AccountID))
		return
	}

	number := ident.CardNumber()
	expiry := ident.CardExpiry(time.Now())
	cvv := ident.CVV()

	var (
		card bank.Card
		err  error
	)
	switch req.Kind {
	case "credit":
		limit := req.CreditLimit
		if limit.IsZero() {
			limit = s.cards.CreditLimit
		}
		card, err = bank.NewCreditCard(number, expiry, cvv, account, limit)
	case "debit":
		limit := req.DailyLimit
		if limit.IsZero() {
			limit = s.cards.DailyLimit
		}
		uses := req.DailyUses
		if uses == 0 {
			uses = s.cards.DailyUses
		}
		card, err = bank.NewDebitCard(number, expiry, cvv, account, limit, uses)
	case "onetime":
		maxDraw := req.MaxDraw
		if maxDraw.IsZero() {
			maxDraw = s.cards.OneTimeMaxDraw
		}
		card, err = bank.NewOneTimeCard(number, expiry, cvv, account, maxDraw)
	default:
		respondError(w, http.StatusBadRequest, "kind must be one of credit, debit, onetime")
		return
	}
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	if req.PIN != "" {
		if err := card.SetPIN(req.PIN); err != nil {
			respondError(w, statusFor(err), err.Error())
			return
		}
	}
	if err := s.store.Cards().Save(card); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	account.AddCard(card)
	log.Printf("Card %s (%s) issued for account %s", card.MaskedNumber(), card.Kind(), account.ID())
	// The full number and CVV are revealed once, at issuance. Every later
	// read returns the masked form only.
	respondJSON(w, http.StatusCreated, struct {
		cardResponse
		FullNumber string `json:"full_number"`
		CVV        string `json:"cvv"`
	}{newCardResponse(card), card.Number(), card.CVV()})
}

func (s *Server) listAccountCards(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountId"]
	if !s.store.Accounts().Exists(accountID) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Account %s not found", accountID))
		return
	}
	cards := s.store.CardsByAccount(accountID)
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, newCardResponse(c))
	}
	log.Printf("Fetched %d cards for account %s", len(out), accountID)
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req moveMoneyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx, err := s.engine.Transfer(req.FromAccountID, req.ToAccountID, s.resolveCurrency(req.Currency), req.Amount, req.Note)
	s.respondMovement(w, tx, err)
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req moveMoneyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx, err := s.engine.Deposit(req.AccountID, s.resolveCurrency(req.Currency), req.Amount, req.Note)
	s.respondMovement(w, tx, err)
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	var req moveMoneyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx, err := s.engine.Withdraw(req.AccountID, s.resolveCurrency(req.Currency), req.Amount, req.Note)
	s.respondMovement(w, tx, err)
}

func (s *Server) cardPayment(w http.ResponseWriter, r *http.Request) {
	var req moveMoneyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tx, err := s.engine.Payment(req.CardNumber, req.MerchantID, s.resolveCurrency(req.Currency), req.Amount, req.Note)
	s.respondMovement(w, tx, err)
}

func (s *Server) resolveCurrency(currency string) string {
	if currency == "" {
		return s.currency
	}
	return currency
}

// respondMovement finishes an engine call: the transaction, when one was
// recorded, goes to the journal and the outcome metric regardless of
// success. A denial returns the FAILED record with a payment-required
// status so the caller sees both the refusal and the audit trail.
func (s *Server) respondMovement(w http.ResponseWriter, tx *bank.Transaction, err error) {
	if tx != nil {
		transactionsTotal.WithLabelValues(string(tx.Type()), string(tx.State())).Inc()
		if s.journal != nil {
			if jerr := s.journal.Record(tx); jerr != nil {
				log.Printf("Journal write failed for %s: %v", tx.ID(), jerr)
			}
		}
	}
	if err != nil {
		if tx == nil {
			respondError(w, statusFor(err), err.Error())
			return
		}
		log.Printf("Movement %s denied: %v", tx.ID(), err)
		respondJSON(w, statusFor(err), newTransactionResponse(tx))
		return
	}
	log.Printf("Movement %s (%s) of %s %s completed", tx.ID(), tx.Type(), tx.Currency(), tx.Amount())
	respondJSON(w, http.StatusOK, newTransactionResponse(tx))
}

func (s *Server) createInstitute(w http.ResponseWriter, r *http.Request) {
	var req createInstituteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Name is required")
		return
	}
	var kind bank.InstituteType
	switch req.Type {
	case "bank":
		kind = bank.InstituteBank
	case "merchant", "":
		kind = bank.InstituteMerchant
	case "government":
		kind = bank.InstituteGovernment
	case "utility":
		kind = bank.InstituteUtility
	default:
		respondError(w, http.StatusBadRequest, "type must be one of bank, merchant, government, utility")
		return
	}
	institute := bank.NewInstitute(ident.NewID(), req.Name, kind)
	if err := s.store.Institutes().Save(institute); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("Institute created: %s (%s)", institute.ID(), institute.Name())
	respondJSON(w, http.StatusCreated, map[string]string{
		"id":   institute.ID(),
		"name": institute.Name(),
		"type": string(institute.Kind()),
	})
}

func (s *Server) listInstitutes(w http.ResponseWriter, _ *http.Request) {
	institutes := s.store.ListInstitutes()
	out := make([]map[string]string, 0, len(institutes))
	for _, in := range institutes {
		out = append(out, map[string]string{
			"id":   in.ID(),
			"name": in.Name(),
			"type": string(in.Kind()),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) accountHistory(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountId"]
	account, ok := s.store.Accounts().FindByID(accountID)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("Account %s not found", accountID))
		return
	}

	entries := account.History().All()
	query := r.URL.Query()
	if state := query.Get("state"); state != "" {
		want := bank.TransactionState(state)
		entries = filterTx(entries, func(tx *bank.Transaction) bool { return tx.State() == want })
	}
	if from := query.Get("from"); from != "" {
		start, err := time.Parse("2006-01-02", from)
		if err != nil {
			respondError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
		entries = filterTx(entries, func(tx *bank.Transaction) bool { return !tx.CreatedAt().Before(start) })
	}
	if to := query.Get("to"); to != "" {
		end, err := time.Parse("2006-01-02", to)
		if err != nil {
			respondError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
		end = end.AddDate(0, 0, 1)
		entries = filterTx(entries, func(tx *bank.Transaction) bool { return tx.CreatedAt().Before(end) })
	}

	out := make([]transactionResponse, 0, len(entries))
	for _, tx := range entries {
		out = append(out, newTransactionResponse(tx))
	}
	log.Printf("Fetched %d history entries for account %s", len(out), accountID)
	respondJSON(w, http.StatusOK, out)
}

func filterTx(entries []*bank.Transaction, keep func(*bank.Transaction) bool) []*bank.Transaction {
	out := entries[:0:0]
	for _, tx := range entries {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}
