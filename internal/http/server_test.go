package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"hearth/internal/auth"
	"hearth/internal/config"
	authmw "hearth/internal/middleware/auth"
	"hearth/internal/services"
	"hearth/internal/storage"
)

func newTestServer(t *testing.T, jwtSecret string) (*httptest.Server, *storage.Repository) {
	t.Helper()

	repo, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	cfg := &config.Config{
		Port:      "0",
		JWTSecret: jwtSecret,
		TokenTTL:  time.Hour,
	}

	reports := services.NewReports(repo)
	lifecycle := services.NewLifecycle(repo, reports, nil)
	rename := services.NewRename(repo, reports, nil)
	server := NewServer(cfg, repo, lifecycle, rename, reports, nil)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, repo
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	return resp, buf.Bytes()
}

func TestMonthScenarioEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, "")

	// Seed the registry and the 2025-04 ledger rows from the reference
	// scenario.
	resp, _ := doJSON(t, "POST", ts.URL+"/settings", map[string]string{
		"default_salary": "3000",
		"categories":     `["Housing","Food"]`,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed settings status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "POST", ts.URL+"/salary", map[string]any{
		"month": "2025-04", "salary": 3000,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("salary status = %d", resp.StatusCode)
	}

	for _, e := range []map[string]any{
		{"month": "2025-04", "name": "Rent", "amount": -1000, "category": "Housing", "who": "Alex"},
		{"month": "2025-04", "name": "Food", "amount": -200, "category": "Food", "who": "Sam"},
	} {
		resp, body := doJSON(t, "POST", ts.URL+"/expenses", e, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create expense status = %d: %s", resp.StatusCode, body)
		}
	}

	// GET /data reflects the writes.
	resp, body := doJSON(t, "GET", ts.URL+"/data?month=2025-04", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("data status = %d", resp.StatusCode)
	}
	var data struct {
		Salary   float64 `json:"salary"`
		Expenses []struct {
			ID     int64   `json:"id"`
			Name   string  `json:"name"`
			Amount float64 `json:"amount"`
		} `json:"expenses"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Salary != 3000 || len(data.Expenses) != 2 {
		t.Fatalf("data = %+v", data)
	}

	// Dashboard over the fiscal window Apr-2025 .. Mar-2026.
	resp, body = doJSON(t, "GET", ts.URL+"/dashboard?year=2025", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status = %d", resp.StatusCode)
	}
	var report struct {
		TotalIncome       float64 `json:"totalIncome"`
		TotalExpenses     float64 `json:"totalExpenses"`
		CategoryBreakdown []struct {
			Category string  `json:"category"`
			Total    float64 `json:"total"`
		} `json:"categoryBreakdown"`
	}
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if report.TotalIncome < 3000 {
		t.Errorf("totalIncome = %v, want >= 3000", report.TotalIncome)
	}
	if report.TotalExpenses != 1200 {
		t.Errorf("totalExpenses = %v, want 1200", report.TotalExpenses)
	}
	want := map[string]float64{"Housing": 1000, "Food": 200}
	sum := 0.0
	for _, c := range report.CategoryBreakdown {
		if want[c.Category] != c.Total {
			t.Errorf("category %s = %v", c.Category, c.Total)
		}
		sum += c.Total
	}
	if sum != report.TotalExpenses {
		t.Errorf("breakdown sum %v != totalExpenses %v", sum, report.TotalExpenses)
	}

	// Round trip: update one expense, unchanged fields retained.
	id := data.Expenses[0].ID
	resp, body = doJSON(t, "PUT", fmt.Sprintf("%s/expenses/%d", ts.URL, id), map[string]any{
		"month": "2025-04", "name": "Rent", "amount": -1050, "category": "Housing", "who": "Alex",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d: %s", resp.StatusCode, body)
	}
	_, body = doJSON(t, "GET", ts.URL+"/data?month=2025-04", nil, nil)
	if err := json.Unmarshal(body, &data); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, e := range data.Expenses {
		if e.ID == id {
			found = true
			if e.Amount != -1050 || e.Name != "Rent" {
				t.Errorf("updated expense = %+v", e)
			}
		}
	}
	if !found {
		t.Error("updated expense missing")
	}

	// Delete the month; data returns empty defaults.
	resp, _ = doJSON(t, "DELETE", ts.URL+"/month?month=2025-04", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete month status = %d", resp.StatusCode)
	}
	_, body = doJSON(t, "GET", ts.URL+"/data?month=2025-04", nil, nil)
	if err := json.Unmarshal(body, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Expenses) != 0 || data.Salary != 0 {
		t.Errorf("data after delete = %+v", data)
	}
}

func TestMonthInitFromTemplatesEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, "")

	doJSON(t, "POST", ts.URL+"/settings", map[string]string{"default_salary": "2500"}, nil)
	for _, name := range []string{"Rent", "Broadband"} {
		resp, _ := doJSON(t, "POST", ts.URL+"/templates", map[string]any{
			"name": name, "amount": -50, "category": "Bills",
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create template status = %d", resp.StatusCode)
		}
	}

	resp, body := doJSON(t, "POST", ts.URL+"/month/init", map[string]any{
		"month": "2025-09", "source": "template",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("init status = %d: %s", resp.StatusCode, body)
	}
	var initResult struct {
		Copied int `json:"copied"`
	}
	if err := json.Unmarshal(body, &initResult); err != nil {
		t.Fatal(err)
	}
	if initResult.Copied != 2 {
		t.Errorf("copied = %d, want 2", initResult.Copied)
	}

	_, body = doJSON(t, "GET", ts.URL+"/data?month=2025-09", nil, nil)
	var data struct {
		Salary   float64          `json:"salary"`
		Expenses []map[string]any `json:"expenses"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		t.Fatal(err)
	}
	if data.Salary != 2500 || len(data.Expenses) != 2 {
		t.Errorf("seeded month = %+v", data)
	}
}

func TestMonthSyncEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, body := doJSON(t, "POST", ts.URL+"/month/sync", map[string]any{
		"month":   "2025-05",
		"balance": map[string]any{"amount": 123.45, "salary": 3000},
		"expenses": []map[string]any{
			{"id": 900, "month": "2025-05", "name": "Rent", "amount": -1200, "category": "Housing"},
		},
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sync status = %d: %s", resp.StatusCode, body)
	}

	_, body = doJSON(t, "GET", ts.URL+"/data?month=2025-05", nil, nil)
	var data struct {
		Balance  float64 `json:"balance"`
		Expenses []struct {
			ID int64 `json:"id"`
		} `json:"expenses"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		t.Fatal(err)
	}
	if data.Balance != 123.45 {
		t.Errorf("balance = %v", data.Balance)
	}
	if len(data.Expenses) != 1 || data.Expenses[0].ID != 900 {
		t.Errorf("client id not preserved: %+v", data.Expenses)
	}
}

func TestRenameEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, "")

	doJSON(t, "POST", ts.URL+"/settings", map[string]string{"categories": `["Food","Housing"]`}, nil)
	doJSON(t, "POST", ts.URL+"/expenses", map[string]any{
		"month": "2025-04", "name": "Shop", "amount": -30, "category": "Food",
	}, nil)

	resp, _ := doJSON(t, "POST", ts.URL+"/settings/rename", map[string]string{
		"kind": "categories", "old": "Food", "new": "Groceries",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("rename status = %d", resp.StatusCode)
	}

	_, body := doJSON(t, "GET", ts.URL+"/settings", nil, nil)
	var settings map[string]string
	if err := json.Unmarshal(body, &settings); err != nil {
		t.Fatal(err)
	}
	if settings["categories"] != `["Groceries","Housing"]` {
		t.Errorf("categories = %s", settings["categories"])
	}

	_, body = doJSON(t, "GET", ts.URL+"/data?month=2025-04", nil, nil)
	var data struct {
		Expenses []struct {
			Category string `json:"category"`
		} `json:"expenses"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		t.Fatal(err)
	}
	if data.Expenses[0].Category != "Groceries" {
		t.Errorf("expense category = %q", data.Expenses[0].Category)
	}
}

func TestExpenseToggleEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, "")

	_, body := doJSON(t, "POST", ts.URL+"/expenses", map[string]any{
		"month": "2025-04", "name": "Water", "amount": -40,
	}, nil)
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}

	resp, body := doJSON(t, "POST", fmt.Sprintf("%s/expenses/%d/toggle", ts.URL, created.ID), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", resp.StatusCode, body)
	}
	var toggled struct {
		Paid bool `json:"paid"`
	}
	if err := json.Unmarshal(body, &toggled); err != nil {
		t.Fatal(err)
	}
	if !toggled.Paid {
		t.Error("first toggle should mark paid")
	}

	_, body = doJSON(t, "POST", fmt.Sprintf("%s/expenses/%d/toggle", ts.URL, created.ID), nil, nil)
	if err := json.Unmarshal(body, &toggled); err != nil {
		t.Fatal(err)
	}
	if toggled.Paid {
		t.Error("second toggle should mark unpaid")
	}

	// A client that names the target state wins over the flip, and a
	// repeated request is idempotent rather than an accidental undo.
	for i := 0; i < 2; i++ {
		_, body = doJSON(t, "POST", fmt.Sprintf("%s/expenses/%d/toggle", ts.URL, created.ID),
			map[string]any{"paid": true}, nil)
		if err := json.Unmarshal(body, &toggled); err != nil {
			t.Fatal(err)
		}
		if !toggled.Paid {
			t.Fatalf("explicit paid=true attempt %d left row unpaid", i+1)
		}
	}
	_, body = doJSON(t, "POST", fmt.Sprintf("%s/expenses/%d/toggle", ts.URL, created.ID),
		map[string]any{"paid": false}, nil)
	if err := json.Unmarshal(body, &toggled); err != nil {
		t.Fatal(err)
	}
	if toggled.Paid {
		t.Error("explicit paid=false left row paid")
	}
}

func TestCardPayEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, "")

	_, body := doJSON(t, "POST", ts.URL+"/credit-cards", map[string]any{
		"name": "Amex", "limit_amount": 5000, "interest_rate": 22.9,
	}, nil)
	var card struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &card); err != nil {
		t.Fatal(err)
	}

	doJSON(t, "POST", fmt.Sprintf("%s/credit-cards/%d/transactions", ts.URL, card.ID), map[string]any{
		"name": "Groceries", "amount": 82,
	}, nil)

	resp, body := doJSON(t, "POST", fmt.Sprintf("%s/credit-cards/%d/pay", ts.URL, card.ID), map[string]any{
		"clear_balance": true,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("pay status = %d: %s", resp.StatusCode, body)
	}
	var paid struct {
		Balance float64 `json:"balance"`
	}
	if err := json.Unmarshal(body, &paid); err != nil {
		t.Fatal(err)
	}
	if paid.Balance != 0 {
		t.Errorf("balance = %v, want 0", paid.Balance)
	}

	_, body = doJSON(t, "GET", fmt.Sprintf("%s/credit-cards/%d/transactions", ts.URL, card.ID), nil, nil)
	var txs []any
	if err := json.Unmarshal(body, &txs); err != nil {
		t.Fatal(err)
	}
	if len(txs) != 0 {
		t.Errorf("transactions after clear = %d", len(txs))
	}
}

func TestAIGenerateFailureEnvelope(t *testing.T) {
	ts, _ := newTestServer(t, "")

	// No ollama_url configured: HTTP 200 with a structured failure.
	resp, body := doJSON(t, "POST", ts.URL+"/ai/generate", map[string]any{
		"type": "budget", "params": map[string]any{"month": "2025-04"},
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Success || envelope.Error == "" {
		t.Errorf("envelope = %+v", envelope)
	}
}

func TestValidationAndNotFound(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, _ := doJSON(t, "GET", ts.URL+"/data?month=soon", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad month status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "DELETE", ts.URL+"/expenses/99999", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing expense status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "GET", ts.URL+"/dashboard", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing year status = %d", resp.StatusCode)
	}

	// An out-of-range expected_day is a client error, not a server one.
	resp, _ = doJSON(t, "POST", ts.URL+"/expenses", map[string]any{
		"month": "2025-04", "name": "Rent", "amount": -1200, "expected_day": 45,
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected_day 45 status = %d, want 400", resp.StatusCode)
	}
	resp, _ = doJSON(t, "POST", ts.URL+"/templates", map[string]any{
		"name": "Rent", "amount": -1200, "expected_day": 0,
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("template expected_day 0 status = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, "GET", ts.URL+"/admin/table/users", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown admin table status = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, "GET", ts.URL+"/meal-plan?start=2025-04-01&end=April", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad plan range status = %d, want 400", resp.StatusCode)
	}
}

func TestAuthEnabledFlow(t *testing.T) {
	ts, repo := newTestServer(t, "test-secret")

	// No token: rejected.
	resp, _ := doJSON(t, "GET", ts.URL+"/data?month=2025-04", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", resp.StatusCode)
	}

	// Register, then use the issued token.
	resp, body := doJSON(t, "POST", ts.URL+"/auth/register", map[string]string{
		"username": "alex", "password": "correcthorse",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d: %s", resp.StatusCode, body)
	}
	var reg struct {
		Token       string `json:"token"`
		HouseholdID int64  `json:"household_id"`
	}
	if err := json.Unmarshal(body, &reg); err != nil {
		t.Fatal(err)
	}

	headers := map[string]string{
		"Authorization":  "Bearer " + reg.Token,
		"X-Household-ID": fmt.Sprintf("%d", reg.HouseholdID),
	}
	resp, _ = doJSON(t, "GET", ts.URL+"/data?month=2025-04", nil, headers)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authed data status = %d", resp.StatusCode)
	}

	// Missing household header is a 400.
	resp, _ = doJSON(t, "GET", ts.URL+"/data?month=2025-04", nil, map[string]string{
		"Authorization": "Bearer " + reg.Token,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing household header status = %d", resp.StatusCode)
	}

	// Login round trip.
	resp, body = doJSON(t, "POST", ts.URL+"/auth/login", map[string]string{
		"username": "alex", "password": "correcthorse",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d: %s", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, "POST", ts.URL+"/auth/login", map[string]string{
		"username": "alex", "password": "wrong",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad login status = %d", resp.StatusCode)
	}

	// A viewer can read but not write.
	hash, err := auth.HashPassword("viewerpass123")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateUser(context.Background(), "casey", hash, reg.HouseholdID, authmw.RoleViewer); err != nil {
		t.Fatal(err)
	}

	resp, body = doJSON(t, "POST", ts.URL+"/auth/login", map[string]string{
		"username": "casey", "password": "viewerpass123",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("viewer login status = %d", resp.StatusCode)
	}
	var viewerLogin struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &viewerLogin); err != nil {
		t.Fatal(err)
	}
	viewerHeaders := map[string]string{
		"Authorization":  "Bearer " + viewerLogin.Token,
		"X-Household-ID": fmt.Sprintf("%d", reg.HouseholdID),
	}

	resp, _ = doJSON(t, "GET", ts.URL+"/data?month=2025-04", nil, viewerHeaders)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("viewer read status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "POST", ts.URL+"/expenses", map[string]any{
		"month": "2025-04", "name": "Sneaky", "amount": -1,
	}, viewerHeaders)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("viewer write status = %d", resp.StatusCode)
	}
}

func TestHouseholdManagement(t *testing.T) {
	ts, _ := newTestServer(t, "test-secret")

	_, body := doJSON(t, "POST", ts.URL+"/auth/register", map[string]string{
		"username": "alex", "password": "correcthorse",
	}, nil)
	var reg struct {
		Token       string `json:"token"`
		HouseholdID int64  `json:"household_id"`
	}
	if err := json.Unmarshal(body, &reg); err != nil {
		t.Fatal(err)
	}
	tokenOnly := map[string]string{"Authorization": "Bearer " + reg.Token}

	// Discovery needs no household header; a fresh client has none yet.
	resp, body := doJSON(t, "GET", ts.URL+"/households", nil, tokenOnly)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list households status = %d: %s", resp.StatusCode, body)
	}
	var memberships []struct {
		ID   int64  `json:"id"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(body, &memberships); err != nil {
		t.Fatal(err)
	}
	if len(memberships) != 1 || memberships[0].ID != reg.HouseholdID || memberships[0].Role != authmw.RoleAdmin {
		t.Fatalf("memberships = %+v", memberships)
	}

	resp, body = doJSON(t, "POST", ts.URL+"/households", map[string]string{"name": "holiday home"}, tokenOnly)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create household status = %d: %s", resp.StatusCode, body)
	}
	_, body = doJSON(t, "GET", ts.URL+"/households", nil, tokenOnly)
	if err := json.Unmarshal(body, &memberships); err != nil {
		t.Fatal(err)
	}
	if len(memberships) != 2 {
		t.Fatalf("memberships after create = %+v", memberships)
	}

	// An admin can grant another account a role in their household.
	doJSON(t, "POST", ts.URL+"/auth/register", map[string]string{
		"username": "casey", "password": "viewerpass123",
	}, nil)
	adminHeaders := map[string]string{
		"Authorization":  "Bearer " + reg.Token,
		"X-Household-ID": fmt.Sprintf("%d", reg.HouseholdID),
	}
	resp, body = doJSON(t, "POST", ts.URL+"/households/members", map[string]string{
		"username": "casey", "role": authmw.RoleViewer,
	}, adminHeaders)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add member status = %d: %s", resp.StatusCode, body)
	}

	resp, _ = doJSON(t, "POST", ts.URL+"/households/members", map[string]string{
		"username": "casey", "role": "Owner",
	}, adminHeaders)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid role status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "POST", ts.URL+"/households/members", map[string]string{
		"username": "nobody", "role": authmw.RoleUser,
	}, adminHeaders)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown username status = %d", resp.StatusCode)
	}
}

func TestHouseholdListWithoutAuth(t *testing.T) {
	ts, _ := newTestServer(t, "")

	resp, body := doJSON(t, "GET", ts.URL+"/households", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var memberships []struct {
		ID   int64  `json:"id"`
		Role string `json:"role"`
	}
	if err := json.Unmarshal(body, &memberships); err != nil {
		t.Fatal(err)
	}
	if len(memberships) != 1 || memberships[0].ID != authmw.DefaultHousehold {
		t.Errorf("memberships = %+v", memberships)
	}

	resp, _ = doJSON(t, "POST", ts.URL+"/households", map[string]string{"name": "second"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("create without auth status = %d, want 400", resp.StatusCode)
	}
}

func TestMealPlanningEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, "")

	_, body := doJSON(t, "POST", ts.URL+"/meals", map[string]any{
		"name": "Chilli", "description": "Slow cooker", "tags": []string{"spicy"}, "type": "dinner",
	}, nil)
	var meal struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &meal); err != nil {
		t.Fatal(err)
	}

	resp, body := doJSON(t, "POST", ts.URL+"/meal-plan", map[string]any{
		"date": "2025-04-07", "slot": "dinner", "meal_id": meal.ID, "who": []string{"Alex"},
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("schedule status = %d: %s", resp.StatusCode, body)
	}

	_, body = doJSON(t, "GET", ts.URL+"/meal-plan?start=2025-04-01&end=2025-04-30", nil, nil)
	var plan []struct {
		Name string   `json:"name"`
		Who  []string `json:"who"`
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal(body, &plan); err != nil {
		t.Fatal(err)
	}
	if len(plan) != 1 || plan[0].Name != "Chilli" || len(plan[0].Who) != 1 || len(plan[0].Tags) != 1 {
		t.Errorf("plan = %+v", plan)
	}

	resp, _ = doJSON(t, "POST", ts.URL+"/birthdays", map[string]string{
		"name": "Nan", "date": "1950-11-02", "type": "birthday",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("birthday status = %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "POST", ts.URL+"/birthdays", map[string]string{
		"name": "Nan", "date": "November 2nd",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", resp.StatusCode)
	}
}

func TestChristmasListToggle(t *testing.T) {
	ts, _ := newTestServer(t, "")

	_, body := doJSON(t, "POST", ts.URL+"/christmas", map[string]any{
		"recipient": "Nan", "item": "Scarf", "amount": 25,
	}, nil)
	var gift struct {
		ID     int64 `json:"id"`
		Bought bool  `json:"bought"`
	}
	if err := json.Unmarshal(body, &gift); err != nil {
		t.Fatal(err)
	}
	if gift.Bought {
		t.Error("new gift should start unbought")
	}

	resp, _ := doJSON(t, "POST", fmt.Sprintf("%s/christmas/%d/toggle", ts.URL, gift.ID),
		map[string]bool{"bought": true}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status = %d", resp.StatusCode)
	}

	_, body = doJSON(t, "GET", ts.URL+"/christmas", nil, nil)
	var gifts []struct {
		Bought bool `json:"bought"`
	}
	if err := json.Unmarshal(body, &gifts); err != nil {
		t.Fatal(err)
	}
	if len(gifts) != 1 || !gifts[0].Bought {
		t.Errorf("gifts = %+v", gifts)
	}
}

func TestSandboxScenarioEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, "")

	for _, e := range []map[string]any{
		{"month": "2025-04", "name": "Rent", "amount": -1200},
		{"month": "2025-04", "name": "Food", "amount": -200},
	} {
		doJSON(t, "POST", ts.URL+"/expenses", e, nil)
	}

	resp, body := doJSON(t, "POST", ts.URL+"/sandbox/import", map[string]string{"month": "2025-04"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d: %s", resp.StatusCode, body)
	}
	var imported struct {
		Imported int `json:"imported"`
	}
	if err := json.Unmarshal(body, &imported); err != nil {
		t.Fatal(err)
	}
	if imported.Imported != 2 {
		t.Errorf("imported = %d, want 2", imported.Imported)
	}

	resp, body = doJSON(t, "POST", ts.URL+"/sandbox/profiles", map[string]any{
		"name": "lean month", "salary": 2800,
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save profile status = %d: %s", resp.StatusCode, body)
	}
	var profile struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		t.Fatal(err)
	}

	doJSON(t, "POST", ts.URL+"/sandbox/clear", nil, nil)
	_, body = doJSON(t, "GET", ts.URL+"/sandbox", nil, nil)
	var items []any
	if err := json.Unmarshal(body, &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("rows after clear = %d", len(items))
	}

	resp, body = doJSON(t, "POST", fmt.Sprintf("%s/sandbox/profiles/%d/load", ts.URL, profile.ID), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load profile status = %d: %s", resp.StatusCode, body)
	}
	var loaded struct {
		Salary float64 `json:"salary"`
	}
	if err := json.Unmarshal(body, &loaded); err != nil {
		t.Fatal(err)
	}
	if loaded.Salary != 2800 {
		t.Errorf("salary = %v, want 2800", loaded.Salary)
	}
	_, body = doJSON(t, "GET", ts.URL+"/sandbox", nil, nil)
	if err := json.Unmarshal(body, &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Errorf("restored rows = %d, want 2", len(items))
	}

	resp, _ = doJSON(t, "POST", fmt.Sprintf("%s/sandbox/profiles/%d/load", ts.URL, 999), nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing profile status = %d", resp.StatusCode)
	}
}

func TestAdminRawTableEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, "")

	doJSON(t, "POST", ts.URL+"/salary", map[string]any{"month": "2025-04", "salary": 3000}, nil)

	_, body := doJSON(t, "GET", ts.URL+"/admin/data", nil, nil)
	var summary []struct {
		Month string `json:"month"`
	}
	if err := json.Unmarshal(body, &summary); err != nil {
		t.Fatal(err)
	}
	if len(summary) != 1 || summary[0].Month != "2025-04" {
		t.Errorf("summary = %+v", summary)
	}

	resp, body := doJSON(t, "POST", ts.URL+"/admin/table/birthdays", map[string]any{
		"household_id": 1, "name": "Nan", "date": "1950-11-02", "type": "birthday",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("admin insert status = %d: %s", resp.StatusCode, body)
	}
	var inserted struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &inserted); err != nil {
		t.Fatal(err)
	}

	resp, _ = doJSON(t, "PUT", fmt.Sprintf("%s/admin/table/birthdays/%d", ts.URL, inserted.ID),
		map[string]any{"surname": "Smith"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown column status = %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, "PUT", fmt.Sprintf("%s/admin/table/birthdays/%d", ts.URL, inserted.ID),
		map[string]any{"name": "Nana"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin update status = %d", resp.StatusCode)
	}

	_, body = doJSON(t, "GET", ts.URL+"/admin/table/birthdays", nil, nil)
	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Nana" {
		t.Errorf("rows = %+v", rows)
	}

	resp, _ = doJSON(t, "DELETE", fmt.Sprintf("%s/admin/table/birthdays/%d", ts.URL, inserted.ID), nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin delete status = %d", resp.StatusCode)
	}
}

func TestSavingsStructureEndToEnd(t *testing.T) {
	ts, _ := newTestServer(t, "")

	_, body := doJSON(t, "POST", ts.URL+"/savings/accounts", map[string]string{"name": "Marcus"}, nil)
	var account struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		t.Fatal(err)
	}

	doJSON(t, "POST", ts.URL+"/savings/pots", map[string]any{
		"account_id": account.ID, "name": "Holiday", "amount": 500,
	}, nil)
	doJSON(t, "POST", ts.URL+"/savings/pots", map[string]any{
		"account_id": account.ID, "name": "Boiler", "amount": 250,
	}, nil)

	_, body = doJSON(t, "GET", ts.URL+"/savings/structure", nil, nil)
	var structure []struct {
		Name  string  `json:"name"`
		Total float64 `json:"total"`
		Pots  []struct {
			Name string `json:"name"`
		} `json:"pots"`
	}
	if err := json.Unmarshal(body, &structure); err != nil {
		t.Fatal(err)
	}
	if len(structure) != 1 || structure[0].Total != 750 || len(structure[0].Pots) != 2 {
		t.Errorf("structure = %+v", structure)
	}
}
