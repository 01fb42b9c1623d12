package core

// Summary holds the figures derived from one user's ledger snapshot.
// ByCategory covers expense entries only; income is not broken out.
type Summary struct {
	Income     Money            `json:"income"`
	Expenses   Money            `json:"expenses"`
	Balance    Money            `json:"balance"`
	ByCategory map[string]Money `json:"byCategory"`
}

// Summarize recomputes the summary from scratch over the given snapshot.
// It is a pure function: same input, same output, no hidden state. Cost is
// O(n) in ledger size, which is fine at personal-finance scale; callers that
// need cheaper reads cache the result and invalidate on write.
func Summarize(transactions []Transaction) Summary {
	s := Summary{ByCategory: map[string]Money{}}
	for _, t := range transactions {
		switch t.Type {
		case Income:
			s.Income = s.Income.Add(t.Amount)
		case Expense:
			s.Expenses = s.Expenses.Add(t.Amount)
			s.ByCategory[t.CategoryName] = s.ByCategory[t.CategoryName].Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expenses)
	return s
}

// TotalWithInitial folds the stored initial balance into the computed
// balance. Balance itself deliberately excludes it: the two figures answer
// different questions, and the call site picks the one it wants.
func (s Summary) TotalWithInitial(initial Money) Money {
	return initial.Add(s.Balance)
}
