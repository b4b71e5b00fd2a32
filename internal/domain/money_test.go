package domain

import "testing"

func TestWithdrawalFee(t *testing.T) {
	cases := []struct {
		amount int64
		want   int64
	}{
		{100_00, 10_00},
		{250_00, 25_00},
		{100_01, 10_00}, // integer division truncates
	}
	for _, tc := range cases {
		if got := WithdrawalFee(tc.amount); got != tc.want {
			t.Errorf("WithdrawalFee(%d) = %d, want %d", tc.amount, got, tc.want)
		}
	}
}

func TestResidualBonus(t *testing.T) {
	cases := []struct {
		amount int64
		want   int64
	}{
		{100_00, 15_00},
		{25_00, 3_75},
		{10_00, 1_50},
	}
	for _, tc := range cases {
		if got := ResidualBonus(tc.amount); got != tc.want {
			t.Errorf("ResidualBonus(%d) = %d, want %d", tc.amount, got, tc.want)
		}
	}
}
