package services

import (
	"context"
	"testing"
	"time"

	"courier-route-service/internal/domain"
)

func TestWorkdayStartAndEnd(t *testing.T) {
	courier := domain.Actor{ID: 5, Role: domain.RoleCourier}
	session := &WorkdaySession{Workdays: newMemWorkdayRepo(), Clock: fixedClock{t: testNow}}

	workday, err := session.Start(context.Background(), courier)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if workday.Status != domain.WorkdayActive {
		t.Errorf("status = %q, want %q", workday.Status, domain.WorkdayActive)
	}
	if !workday.StartedAt.Equal(testNow) {
		t.Errorf("started_at = %v, want %v", workday.StartedAt, testNow)
	}

	closed, err := session.End(context.Background(), courier)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closed.Status != domain.WorkdayClosed {
		t.Errorf("status = %q, want %q", closed.Status, domain.WorkdayClosed)
	}
	if closed.EndedAt == nil || !closed.EndedAt.Equal(testNow) {
		t.Errorf("ended_at = %v, want %v", closed.EndedAt, testNow)
	}
}

func TestWorkdayStartRejectsSecondActive(t *testing.T) {
	courier := domain.Actor{ID: 5, Role: domain.RoleCourier}
	session := &WorkdaySession{
		Workdays: newMemWorkdayRepo(activeWorkday(5, testNow.Add(-time.Hour))),
		Clock:    fixedClock{t: testNow},
	}

	_, err := session.Start(context.Background(), courier)
	if KindOf(err) != KindConflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestWorkdayEndWithoutActive(t *testing.T) {
	courier := domain.Actor{ID: 5, Role: domain.RoleCourier}
	session := &WorkdaySession{Workdays: newMemWorkdayRepo(), Clock: fixedClock{t: testNow}}

	_, err := session.End(context.Background(), courier)
	if KindOf(err) != KindConflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestWorkdayStartRequiresCourierRole(t *testing.T) {
	session := &WorkdaySession{Workdays: newMemWorkdayRepo(), Clock: fixedClock{t: testNow}}

	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleCustomer} {
		if _, err := session.Start(context.Background(), domain.Actor{ID: 1, Role: role}); KindOf(err) != KindPermission {
			t.Errorf("role %s: expected Permission, got %v", role, err)
		}
	}
}

func TestWorkdayActiveLookup(t *testing.T) {
	workdays := newMemWorkdayRepo(activeWorkday(5, testNow.Add(-time.Hour)))
	session := &WorkdaySession{Workdays: workdays, Clock: fixedClock{t: testNow}}

	// Couriers see their own shift regardless of the courier_id argument.
	own, err := session.Active(context.Background(), domain.Actor{ID: 5, Role: domain.RoleCourier}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if own.CourierID != 5 {
		t.Errorf("courier id = %d, want 5", own.CourierID)
	}

	// Admins must name one.
	if _, err := session.Active(context.Background(), admin, 0); KindOf(err) != KindValidation {
		t.Errorf("expected Validation for admin without courier_id, got %v", err)
	}
	if _, err := session.Active(context.Background(), admin, 9); KindOf(err) != KindNotFound {
		t.Errorf("expected NotFound for off-shift courier, got %v", err)
	}

	// Customers have no workday visibility.
	if _, err := session.Active(context.Background(), domain.Actor{ID: 2, Role: domain.RoleCustomer}, 5); KindOf(err) != KindPermission {
		t.Errorf("expected Permission for customer, got %v", err)
	}
}
