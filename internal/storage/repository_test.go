package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"hearth/internal/core"
)

const testHousehold = int64(1)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBalanceUpsertTouchesOneColumn(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertBalanceSalary(ctx, testHousehold, "2025-04", dec("3000")); err != nil {
		t.Fatalf("UpsertBalanceSalary: %v", err)
	}
	if err := repo.UpsertBalanceAmount(ctx, testHousehold, "2025-04", dec("1250.50")); err != nil {
		t.Fatalf("UpsertBalanceAmount: %v", err)
	}
	if err := repo.UpsertBalanceNotes(ctx, testHousehold, "2025-04", "car serviced"); err != nil {
		t.Fatalf("UpsertBalanceNotes: %v", err)
	}

	b, err := repo.GetBalance(ctx, testHousehold, "2025-04")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if !b.Salary.Equal(dec("3000")) {
		t.Errorf("salary = %s, want 3000", b.Salary)
	}
	if !b.Amount.Equal(dec("1250.50")) {
		t.Errorf("amount = %s, want 1250.50", b.Amount)
	}
	if b.Notes != "car serviced" {
		t.Errorf("notes = %q", b.Notes)
	}

	// The single row invariant: three writes, one row.
	var count int
	if err := repo.DB().QueryRow(
		`SELECT COUNT(*) FROM monthly_balances WHERE household_id = ? AND month = ?`,
		testHousehold, "2025-04").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("balance rows = %d, want 1", count)
	}
}

func TestInitBalanceIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	inserted, err := repo.InitBalance(ctx, testHousehold, "2025-05", dec("3000"))
	if err != nil {
		t.Fatalf("InitBalance: %v", err)
	}
	if !inserted {
		t.Error("first init should insert")
	}

	if err := repo.UpsertBalanceSalary(ctx, testHousehold, "2025-05", dec("3200")); err != nil {
		t.Fatal(err)
	}

	inserted, err = repo.InitBalance(ctx, testHousehold, "2025-05", dec("3000"))
	if err != nil {
		t.Fatalf("InitBalance repeat: %v", err)
	}
	if inserted {
		t.Error("second init must not insert")
	}

	b, err := repo.GetBalance(ctx, testHousehold, "2025-05")
	if err != nil {
		t.Fatal(err)
	}
	if !b.Salary.Equal(dec("3200")) {
		t.Errorf("re-init overwrote salary: %s", b.Salary)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e, err := repo.CreateExpense(ctx, core.Expense{
		HouseholdID: testHousehold,
		Month:       "2025-04",
		Name:        "Rent",
		Amount:      dec("-1200"),
		Category:    "Housing",
		Who:         "Alex",
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if e.ID == 0 {
		t.Fatal("expected assigned id")
	}

	e.Amount = dec("-1250")
	if err := repo.UpdateExpense(ctx, e); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	got, err := repo.GetExpense(ctx, testHousehold, e.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if !got.Amount.Equal(dec("-1250")) {
		t.Errorf("amount = %s, want -1250", got.Amount)
	}
	if got.Paid {
		t.Error("new expense should be unpaid")
	}

	if err := repo.DeleteExpense(ctx, testHousehold, e.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if _, err := repo.GetExpense(ctx, testHousehold, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}

func TestSetExpensePaidStampsTimestamp(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e, err := repo.CreateExpense(ctx, core.Expense{
		HouseholdID: testHousehold, Month: "2025-04", Name: "Water", Amount: dec("-40"),
	})
	if err != nil {
		t.Fatal(err)
	}

	now := core.Month("2025-04").Time()
	if err := repo.SetExpensePaid(ctx, testHousehold, e.ID, true, now); err != nil {
		t.Fatalf("SetExpensePaid: %v", err)
	}
	got, _ := repo.GetExpense(ctx, testHousehold, e.ID)
	if !got.Paid || got.PaidAt == nil {
		t.Fatalf("paid = %v, paid_at = %v, want true with timestamp", got.Paid, got.PaidAt)
	}

	if err := repo.SetExpensePaid(ctx, testHousehold, e.ID, false, now); err != nil {
		t.Fatal(err)
	}
	got, _ = repo.GetExpense(ctx, testHousehold, e.ID)
	if got.Paid || got.PaidAt != nil {
		t.Errorf("unpaid row kept timestamp: paid = %v, paid_at = %v", got.Paid, got.PaidAt)
	}
}

func TestReplaceMonthPreservesClientIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	old, err := repo.CreateExpense(ctx, core.Expense{
		HouseholdID: testHousehold, Month: "2025-06", Name: "Old", Amount: dec("-10"),
	})
	if err != nil {
		t.Fatal(err)
	}

	err = repo.ReplaceMonth(ctx, testHousehold, "2025-06", []core.Expense{
		{ID: 42, Name: "Kept", Amount: dec("-20"), Category: "Misc"},
		{Name: "Fresh", Amount: dec("-5")},
	})
	if err != nil {
		t.Fatalf("ReplaceMonth: %v", err)
	}

	expenses, err := repo.ExpensesByMonth(ctx, testHousehold, "2025-06")
	if err != nil {
		t.Fatal(err)
	}
	if len(expenses) != 2 {
		t.Fatalf("rows = %d, want 2", len(expenses))
	}
	if expenses[0].ID != 42 || expenses[0].Name != "Kept" {
		t.Errorf("client id not preserved: %+v", expenses[0])
	}
	if expenses[1].ID == 0 || expenses[1].ID == old.ID {
		t.Errorf("fresh row id = %d", expenses[1].ID)
	}
	for _, e := range expenses {
		if e.Name == "Old" {
			t.Error("replaced row survived")
		}
	}
}

func TestDeleteMonthRemovesExpensesAndBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_ = repo.UpsertBalanceSalary(ctx, testHousehold, "2025-07", dec("3000"))
	for _, name := range []string{"A", "B"} {
		if _, err := repo.CreateExpense(ctx, core.Expense{
			HouseholdID: testHousehold, Month: "2025-07", Name: name, Amount: dec("-1"),
		}); err != nil {
			t.Fatal(err)
		}
	}
	// Neighboring month must survive the delete.
	if _, err := repo.CreateExpense(ctx, core.Expense{
		HouseholdID: testHousehold, Month: "2025-08", Name: "C", Amount: dec("-1"),
	}); err != nil {
		t.Fatal(err)
	}

	removed, err := repo.DeleteMonth(ctx, testHousehold, "2025-07")
	if err != nil {
		t.Fatalf("DeleteMonth: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, err := repo.GetBalance(ctx, testHousehold, "2025-07"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("balance err = %v, want ErrNotFound", err)
	}
	neighbors, _ := repo.ExpensesByMonth(ctx, testHousehold, "2025-08")
	if len(neighbors) != 1 {
		t.Errorf("neighbor month rows = %d, want 1", len(neighbors))
	}
}

func TestSavingsGroupingAndTotals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	accountID, err := repo.CreateSavingsAccount(ctx, testHousehold, "Marcus")
	if err != nil {
		t.Fatalf("CreateSavingsAccount: %v", err)
	}
	emptyID, err := repo.CreateSavingsAccount(ctx, testHousehold, "Premium Saver")
	if err != nil {
		t.Fatal(err)
	}

	for _, pot := range []core.SavingsPot{
		{AccountID: accountID, Name: "Holiday", Amount: dec("500")},
		{AccountID: accountID, Name: "Boiler", Amount: dec("250.25")},
	} {
		if _, err := repo.CreatePot(ctx, testHousehold, pot); err != nil {
			t.Fatalf("CreatePot: %v", err)
		}
	}

	accounts, err := repo.ListSavings(ctx, testHousehold)
	if err != nil {
		t.Fatalf("ListSavings: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(accounts))
	}
	if !accounts[0].Total.Equal(dec("750.25")) {
		t.Errorf("total = %s, want 750.25", accounts[0].Total)
	}
	if len(accounts[1].Pots) != 0 || !accounts[1].Total.IsZero() {
		t.Errorf("empty account got pots %v total %s", accounts[1].Pots, accounts[1].Total)
	}

	if err := repo.DeleteSavingsAccount(ctx, testHousehold, accountID); err != nil {
		t.Fatal(err)
	}
	var orphans int
	if err := repo.DB().QueryRow(
		`SELECT COUNT(*) FROM savings_pots WHERE account_id = ?`, accountID).Scan(&orphans); err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Errorf("cascade left %d pots", orphans)
	}
	_ = emptyID
}

func TestPotOwnershipEnforced(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	otherHousehold, err := repo.CreateHousehold(ctx, "next door")
	if err != nil {
		t.Fatal(err)
	}
	accountID, err := repo.CreateSavingsAccount(ctx, testHousehold, "Marcus")
	if err != nil {
		t.Fatal(err)
	}
	pot, err := repo.CreatePot(ctx, testHousehold, core.SavingsPot{AccountID: accountID, Name: "Holiday", Amount: dec("100")})
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.DeletePot(ctx, otherHousehold, pot.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-household delete err = %v, want ErrNotFound", err)
	}
	if _, err := repo.CreatePot(ctx, otherHousehold, core.SavingsPot{AccountID: accountID, Name: "Sneaky"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-household create err = %v, want ErrNotFound", err)
	}
}

func TestCardTransactionsAndPay(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	card, err := repo.CreateCard(ctx, core.CreditCard{
		HouseholdID: testHousehold,
		Name:        "Amex",
		Balance:     decimal.Zero,
		LimitAmount: dec("5000"),
	})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}

	if _, err := repo.AddCardTransaction(ctx, testHousehold, core.CcTransaction{
		CardID: card.ID, Name: "Groceries", Amount: dec("82.10"),
	}); err != nil {
		t.Fatalf("AddCardTransaction: %v", err)
	}
	if _, err := repo.AddCardTransaction(ctx, testHousehold, core.CcTransaction{
		CardID: card.ID, Name: "Fuel", Amount: dec("60"),
	}); err != nil {
		t.Fatal(err)
	}

	got, _ := repo.GetCard(ctx, testHousehold, card.ID)
	if !got.Balance.Equal(dec("142.1")) {
		t.Errorf("balance = %s, want 142.1", got.Balance)
	}

	// Partial payment keeps transactions.
	balance, err := repo.PayCard(ctx, testHousehold, card.ID, dec("42.1"), false)
	if err != nil {
		t.Fatalf("PayCard: %v", err)
	}
	if !balance.Equal(dec("100")) {
		t.Errorf("balance after partial pay = %s, want 100", balance)
	}
	txs, _ := repo.ListCardTransactions(ctx, testHousehold, card.ID)
	if len(txs) != 2 {
		t.Errorf("transactions = %d, want 2", len(txs))
	}

	// Clearing payment zeroes balance and drops transactions.
	balance, err = repo.PayCard(ctx, testHousehold, card.ID, dec("100"), true)
	if err != nil {
		t.Fatal(err)
	}
	if !balance.IsZero() {
		t.Errorf("balance after clear = %s, want 0", balance)
	}
	txs, _ = repo.ListCardTransactions(ctx, testHousehold, card.ID)
	if len(txs) != 0 {
		t.Errorf("transactions after clear = %d, want 0", len(txs))
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SetSetting(ctx, testHousehold, SettingCategories, `["Housing","Food"]`); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetSetting(ctx, testHousehold, SettingDefaultSalary, "3000"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetSetting(ctx, testHousehold, SettingPayDay, "25"); err != nil {
		t.Fatal(err)
	}

	s, err := repo.LoadSettings(ctx, testHousehold)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if len(s.Categories) != 2 || s.Categories[0] != "Housing" {
		t.Errorf("categories = %v", s.Categories)
	}
	if !s.DefaultSalary.Equal(dec("3000")) {
		t.Errorf("default salary = %s", s.DefaultSalary)
	}
	if s.PayDay != 25 {
		t.Errorf("pay day = %d", s.PayDay)
	}
	if len(s.People) != 0 {
		t.Errorf("unset people = %v, want empty", s.People)
	}
}

func TestRenameRegistryAndRows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SetSetting(ctx, testHousehold, SettingCategories, `["Housing","Food"]`); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateExpense(ctx, core.Expense{
		HouseholdID: testHousehold, Month: "2025-04", Name: "Rent", Amount: dec("-1200"), Category: "Housing",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateTemplate(ctx, core.ExpenseTemplate{
		HouseholdID: testHousehold, Name: "Rent", Amount: dec("-1200"), Category: "Housing",
	}); err != nil {
		t.Fatal(err)
	}

	changed, err := repo.RenameInRegistry(ctx, testHousehold, core.RegistryCategories, "Housing", "Home")
	if err != nil {
		t.Fatalf("RenameInRegistry: %v", err)
	}
	if !changed {
		t.Error("registry should change")
	}
	renamed, err := repo.RenameLabelRows(ctx, testHousehold, core.RegistryCategories, "Housing", "Home")
	if err != nil {
		t.Fatalf("RenameLabelRows: %v", err)
	}
	if renamed != 1 {
		t.Errorf("renamed = %d, want 1", renamed)
	}

	s, _ := repo.LoadSettings(ctx, testHousehold)
	if s.Categories[0] != "Home" {
		t.Errorf("registry = %v", s.Categories)
	}
	expenses, _ := repo.ExpensesByMonth(ctx, testHousehold, "2025-04")
	if expenses[0].Category != "Home" {
		t.Errorf("expense category = %q", expenses[0].Category)
	}
	templates, _ := repo.ListTemplates(ctx, testHousehold)
	if templates[0].Category != "Home" {
		t.Errorf("template category = %q", templates[0].Category)
	}

	// Absent label leaves the registry untouched but is not an error.
	changed, err = repo.RenameInRegistry(ctx, testHousehold, core.RegistryCategories, "Ghost", "Spirit")
	if err != nil || changed {
		t.Errorf("absent label: changed = %v, err = %v", changed, err)
	}
}

func TestUsersAndMembership(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "alex", "hash", testHousehold, "Admin")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := repo.GetUserByUsername(ctx, "alex")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByUsername = %+v, %v", got, err)
	}

	role, err := repo.GetMemberRole(ctx, testHousehold, u.ID)
	if err != nil || role != "Admin" {
		t.Fatalf("GetMemberRole = %q, %v", role, err)
	}

	if _, err := repo.GetMemberRole(ctx, 99, u.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("non-member err = %v, want ErrNotFound", err)
	}

	if _, err := repo.CreateUser(ctx, "alex", "other", testHousehold, "Viewer"); err == nil {
		t.Error("duplicate username should fail")
	}
}
