package domain

import "testing"

func TestChargeStatusTerminal(t *testing.T) {
	if ChargeStatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	for _, s := range []ChargeStatus{ChargeStatusPaid, ChargeStatusExpired, ChargeStatusCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
}

func TestPackageByID(t *testing.T) {
	p, ok := PackageByID(2)
	if !ok {
		t.Fatal("package 2 should exist")
	}
	if p.Credits != 25 || p.Price != 25_00 || p.Bonus != 5 {
		t.Errorf("package 2 = %+v", p)
	}
	if p.TotalCredits() != 30 {
		t.Errorf("total credits = %d, want 30", p.TotalCredits())
	}

	if _, ok := PackageByID(99); ok {
		t.Error("package 99 should not exist")
	}
}

func TestPackageByGatewayProduct(t *testing.T) {
	p, ok := PackageByGatewayProduct("BSMZNJMGUWMM")
	if !ok {
		t.Fatal("activation product should resolve")
	}
	if p.ID != ActivationPackageID {
		t.Errorf("resolved to package %d, want %d", p.ID, ActivationPackageID)
	}

	if _, ok := PackageByGatewayProduct("NOPE"); ok {
		t.Error("unknown product must not resolve")
	}
}

func TestPackageByAmount(t *testing.T) {
	p, ok := PackageByAmount(50_00)
	if !ok || p.ID != 3 {
		t.Errorf("amount 5000 resolved to %+v, ok=%v", p, ok)
	}
	if _, ok := PackageByAmount(13_37); ok {
		t.Error("odd amount must not resolve")
	}
}
