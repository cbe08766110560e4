package accounts

import "testing"

func TestNormalSide(t *testing.T) {
	cases := []struct {
		accountType AccountType
		want        BalanceSide
	}{
		{TypeAsset, DebitNormal},
		{TypeExpense, DebitNormal},
		{TypeLiability, CreditNormal},
		{TypeEquity, CreditNormal},
		{TypeRevenue, CreditNormal},
	}
	for _, tc := range cases {
		if got := tc.accountType.NormalSide(); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.accountType, tc.want, got)
		}
	}
}

func TestNormalizeType(t *testing.T) {
	if _, ok := NormalizeType("Asset"); !ok {
		t.Fatal("Asset should normalize")
	}
	if _, ok := NormalizeType("asset"); ok {
		t.Fatal("lowercase should not normalize")
	}
	if _, ok := NormalizeType("Wallet"); ok {
		t.Fatal("unknown type should not normalize")
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := &NotFoundError{Code: "9999"}
	if err.Error() != "Account not found: 9999" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
