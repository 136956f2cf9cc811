package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"bankcore/internal/bank"
	"bankcore/internal/config"
	"bankcore/internal/ident"
	"bankcore/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	m := storage.NewMemory()
	engine := bank.NewEngine(m.Accounts(), m.Cards(), m.Institutes(), m.Transactions(), ident.Source{}, nil)
	srv, err := New(m, engine, nil, config.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func registerTestUser(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := doJSON(t, h, "POST", "/register", registerRequest{
		Name: "Ann", Surname: "Smith", DateOfBirth: "1990-03-05",
		Email: email, Phone: "5551234567", Password: "Str0ng!Pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register = %d: %s", rec.Code, rec.Body.String())
	}
	var resp userResponse
	decodeInto(t, rec, &resp)
	return resp.ID
}

func createTestAccount(t *testing.T, h http.Handler, userID, balance string) string {
	t.Helper()
	rec := doJSON(t, h, "POST", "/accounts", createAccountRequest{
		UserID: userID, Currency: "USD", InitialBalance: decimal.RequireFromString(balance),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account = %d: %s", rec.Code, rec.Body.String())
	}
	var resp accountResponse
	decodeInto(t, rec, &resp)
	return resp.ID
}

func TestRegisterAndLogin(t *testing.T) {
	h := newTestServer(t).Handler()
	userID := registerTestUser(t, h, "ann@example.com")

	rec := doJSON(t, h, "POST", "/login", loginRequest{Email: "ann@example.com", Password: "Str0ng!Pass"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeInto(t, rec, &resp)
	if resp["user_id"] != userID {
		t.Fatalf("user_id = %q, want %q", resp["user_id"], userID)
	}

	if rec := doJSON(t, h, "POST", "/login", loginRequest{Email: "ann@example.com", Password: "Wrong!Pass1"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password = %d", rec.Code)
	}
	if rec := doJSON(t, h, "POST", "/login", loginRequest{Email: "ghost@example.com", Password: "Str0ng!Pass"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email = %d", rec.Code)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	h := newTestServer(t).Handler()
	registerTestUser(t, h, "ann@example.com")
	rec := doJSON(t, h, "POST", "/register", registerRequest{
		Name: "Bob", Surname: "Jones", DateOfBirth: "1985-06-01",
		Email: "ann@example.com", Phone: "5559876543", Password: "Str0ng!Pass",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := doJSON(t, h, "POST", "/register", registerRequest{
		Name: "Ann", DateOfBirth: "1990-03-05",
		Email: "ann@example.com", Phone: "5551234567", Password: "weak",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("weak password = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateAndListAccounts(t *testing.T) {
	h := newTestServer(t).Handler()
	userID := registerTestUser(t, h, "ann@example.com")
	createTestAccount(t, h, userID, "100.00")
	createTestAccount(t, h, userID, "0")

	rec := doJSON(t, h, "GET", "/users/"+userID+"/accounts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d: %s", rec.Code, rec.Body.String())
	}
	var accounts []accountResponse
	decodeInto(t, rec, &accounts)
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}
	if !accounts[0].Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("balance = %s", accounts[0].Balance)
	}

	if rec := doJSON(t, h, "POST", "/accounts", createAccountRequest{UserID: "ghost"}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user = %d", rec.Code)
	}
}

func TestIssueCardMasksNumber(t *testing.T) {
	h := newTestServer(t).Handler()
	userID := registerTestUser(t, h, "ann@example.com")
	accountID := createTestAccount(t, h, userID, "500")

	rec := doJSON(t, h, "POST", "/cards", issueCardRequest{AccountID: accountID, Kind: "onetime", PIN: "1234"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("issue = %d: %s", rec.Code, rec.Body.String())
	}
	var issued struct {
		cardResponse
		FullNumber string `json:"full_number"`
		CVV        string `json:"cvv"`
	}
	decodeInto(t, rec, &issued)
	if !bank.ValidCardNumber(issued.FullNumber) {
		t.Fatalf("full_number = %q", issued.FullNumber)
	}
	if issued.Number == issued.FullNumber || issued.Number[:5] != "**** " {
		t.Fatalf("number = %q, want masked", issued.Number)
	}
	if issued.Kind != string(bank.KindOneTime) || issued.AccountID != accountID {
		t.Fatalf("card = %+v", issued)
	}

	// A later read only ever shows the masked form.
	rec = doJSON(t, h, "GET", "/accounts/"+accountID+"/cards", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list cards = %d", rec.Code)
	}
	var cards []cardResponse
	decodeInto(t, rec, &cards)
	if len(cards) != 1 || cards[0].Number != issued.Number {
		t.Fatalf("cards = %+v", cards)
	}

	if rec := doJSON(t, h, "POST", "/cards", issueCardRequest{AccountID: accountID, Kind: "psychic"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad kind = %d", rec.Code)
	}
}

func TestTransferFlow(t *testing.T) {
	h := newTestServer(t).Handler()
	userID := registerTestUser(t, h, "ann@example.com")
	from := createTestAccount(t, h, userID, "100.00")
	to := createTestAccount(t, h, userID, "0")

	rec := doJSON(t, h, "POST", "/transfers", moveMoneyRequest{
		FromAccountID: from, ToAccountID: to, Amount: decimal.RequireFromString("40.00"), Note: "rent",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("transfer = %d: %s", rec.Code, rec.Body.String())
	}
	var tx transactionResponse
	decodeInto(t, rec, &tx)
	if tx.State != string(bank.StateCompleted) || tx.Type != string(bank.TypeTransfer) {
		t.Fatalf("tx = %+v", tx)
	}
	if tx.SenderID != from || tx.ReceiverID != to {
		t.Fatalf("endpoints = %+v", tx)
	}

	// Overdraw: payment-required with the FAILED record as the body.
	rec = doJSON(t, h, "POST", "/transfers", moveMoneyRequest{
		FromAccountID: from, ToAccountID: to, Amount: decimal.RequireFromString("1000"),
	})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("overdraw = %d: %s", rec.Code, rec.Body.String())
	}
	decodeInto(t, rec, &tx)
	if tx.State != string(bank.StateFailed) {
		t.Fatalf("overdraw state = %s", tx.State)
	}

	if rec := doJSON(t, h, "POST", "/transfers", moveMoneyRequest{
		FromAccountID: from, ToAccountID: "ghost", Amount: decimal.RequireFromString("1"),
	}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown receiver = %d", rec.Code)
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	h := newTestServer(t).Handler()
	userID := registerTestUser(t, h, "ann@example.com")
	accountID := createTestAccount(t, h, userID, "0")

	rec := doJSON(t, h, "POST", "/deposits", moveMoneyRequest{AccountID: accountID, Amount: decimal.RequireFromString("75.50")})
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit = %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, "POST", "/withdrawals", moveMoneyRequest{AccountID: accountID, Amount: decimal.RequireFromString("25.50")})
	if rec.Code != http.StatusOK {
		t.Fatalf("withdraw = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, "GET", "/users/"+userID+"/accounts", nil)
	var accounts []accountResponse
	decodeInto(t, rec, &accounts)
	if !accounts[0].Balance.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("balance = %s, want 50.00", accounts[0].Balance)
	}
}

func TestCardPaymentFlow(t *testing.T) {
	h := newTestServer(t).Handler()
	userID := registerTestUser(t, h, "ann@example.com")
	accountID := createTestAccount(t, h, userID, "500")

	rec := doJSON(t, h, "POST", "/cards", issueCardRequest{AccountID: accountID, Kind: "onetime"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("issue = %d: %s", rec.Code, rec.Body.String())
	}
	var issued struct {
		FullNumber string `json:"full_number"`
	}
	decodeInto(t, rec, &issued)

	rec = doJSON(t, h, "POST", "/institutes", createInstituteRequest{Name: "Grocer"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("institute = %d: %s", rec.Code, rec.Body.String())
	}
	var inst map[string]string
	decodeInto(t, rec, &inst)

	rec = doJSON(t, h, "POST", "/payments/card", moveMoneyRequest{
		CardNumber: issued.FullNumber, MerchantID: inst["id"], Amount: decimal.RequireFromString("300"), Note: "groceries",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("payment = %d: %s", rec.Code, rec.Body.String())
	}
	var tx transactionResponse
	decodeInto(t, rec, &tx)
	if tx.Type != string(bank.TypeCardPayment) || tx.MerchantID != inst["id"] {
		t.Fatalf("tx = %+v", tx)
	}

	// The card is one-time; the second swipe is refused and journaled FAILED.
	rec = doJSON(t, h, "POST", "/payments/card", moveMoneyRequest{
		CardNumber: issued.FullNumber, MerchantID: inst["id"], Amount: decimal.RequireFromString("10"),
	})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("second swipe = %d: %s", rec.Code, rec.Body.String())
	}
	decodeInto(t, rec, &tx)
	if tx.State != string(bank.StateFailed) {
		t.Fatalf("second swipe state = %s", tx.State)
	}
}

func TestAccountHistoryFilters(t *testing.T) {
	h := newTestServer(t).Handler()
	userID := registerTestUser(t, h, "ann@example.com")
	from := createTestAccount(t, h, userID, "100")
	to := createTestAccount(t, h, userID, "0")

	for _, amount := range []string{"10", "20", "500"} {
		doJSON(t, h, "POST", "/transfers", moveMoneyRequest{
			FromAccountID: from, ToAccountID: to, Amount: decimal.RequireFromString(amount),
		})
	}

	rec := doJSON(t, h, "GET", "/accounts/"+from+"/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history = %d: %s", rec.Code, rec.Body.String())
	}
	var all []transactionResponse
	decodeInto(t, rec, &all)
	if len(all) != 3 {
		t.Fatalf("got %d entries, want 3", len(all))
	}

	rec = doJSON(t, h, "GET", "/accounts/"+from+"/history?state=FAILED", nil)
	var failed []transactionResponse
	decodeInto(t, rec, &failed)
	if len(failed) != 1 || !failed[0].Amount.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("failed = %+v", failed)
	}

	if rec := doJSON(t, h, "GET", "/accounts/"+from+"/history?from=bogus", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad from = %d", rec.Code)
	}
	if rec := doJSON(t, h, "GET", "/accounts/ghost/history", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown account = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := doJSON(t, h, "GET", "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
}
